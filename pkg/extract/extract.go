// Package extract turns one paper's text into a validated FactBundle by
// calling a completion backend with a schema-enforced prompt.
package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"github.com/pkoukk/tiktoken-go"

	"github.com/sciweave/papergraph/internal/util"
	"github.com/sciweave/papergraph/pkg/ai"
	"github.com/sciweave/papergraph/pkg/common"
)

const (
	// defaultMaxInputTokens bounds the paper text handed to the backend.
	// The abstract is always kept; the full text is trimmed to fit.
	defaultMaxInputTokens = 6000

	// extractionTemperature keeps structured extraction near-greedy.
	extractionTemperature = 0.1

	tokenEncoding = "cl100k_base"
)

// NamedFact is one extracted equation, methodology or technology.
type NamedFact struct {
	Name        string `json:"name" validate:"required" jsonschema_description:"Short name or descriptive phrase for the item"`
	Description string `json:"description,omitempty" jsonschema_description:"One-sentence description of the item as used in the paper"`
}

// CausalLink is one extracted cause-and-effect relationship. A link always
// has an initial cause and an intermediate effect; the final effect and its
// explanation are present only for two-step relationships.
type CausalLink struct {
	InitialCause       string  `json:"initial_cause" validate:"required" jsonschema_description:"Short noun phrase naming the initial cause"`
	IntermediateEffect string  `json:"intermediate_effect" validate:"required" jsonschema_description:"Short noun phrase naming the direct effect of the initial cause"`
	ExplanationStep1   string  `json:"explanation_step1" validate:"required" jsonschema_description:"Why the initial cause leads to the intermediate effect, including the mechanism"`
	FinalEffect        string  `json:"final_effect,omitempty" jsonschema_description:"Short noun phrase naming the downstream effect, empty for single-step relationships"`
	ExplanationStep2   string  `json:"explanation_step2,omitempty" jsonschema_description:"Why the intermediate effect leads to the final effect, empty for single-step relationships"`
	Confidence         float64 `json:"confidence,omitempty" jsonschema_description:"Confidence in the relationship between 0 and 1"`
}

// SharedEffect is one extracted pair of distinct causes converging on the
// same effect.
type SharedEffect struct {
	CauseA       string `json:"cause_a" validate:"required" jsonschema_description:"Short noun phrase naming the first cause"`
	CauseB       string `json:"cause_b" validate:"required" jsonschema_description:"Short noun phrase naming the second, distinct cause"`
	SharedEffect string `json:"shared_effect" validate:"required" jsonschema_description:"Short noun phrase naming the effect both causes lead to"`
	WhyAToEffect string `json:"why_a_to_effect" validate:"required" jsonschema_description:"Why the first cause leads to the shared effect"`
	WhyBToEffect string `json:"why_b_to_effect" validate:"required" jsonschema_description:"Why the second cause leads to the shared effect"`
}

// FactBundle is the complete structured output extracted from one paper.
type FactBundle struct {
	Equations     []NamedFact    `json:"equations" validate:"dive" jsonschema_description:"Equations explicitly mentioned in the paper"`
	Methodologies []NamedFact    `json:"methodologies" validate:"dive" jsonschema_description:"Specific methodologies used or introduced in the paper"`
	Technologies  []NamedFact    `json:"technologies" validate:"dive" jsonschema_description:"Concrete technologies used or introduced in the paper"`
	CausalLinks   []CausalLink   `json:"causal_links" validate:"dive" jsonschema_description:"Cause-and-effect relationships asserted by the paper"`
	SharedEffects []SharedEffect `json:"shared_effects" validate:"dive" jsonschema_description:"Pairs of distinct causes the paper claims converge on one effect"`
}

// ClientParams configures NewClient. Zero values select defaults. Model,
// when set, pins every extraction call to that model instead of the
// backend's configured default.
type ClientParams struct {
	AI             ai.Client
	Model          string
	MaxInputTokens int
	MaxRetries     int
	BaseDelay      time.Duration
}

// tokenCodec converts between text and model tokens for budget trimming.
type tokenCodec interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenCodec struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCodec) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c *tiktokenCodec) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

// Client extracts a FactBundle from a paper. Retryable backend failures
// (rate limits, transient network errors) are retried with exponential
// backoff; malformed responses and authentication failures are terminal.
type Client struct {
	ai        ai.Client
	maxTokens int
	backoff   util.BackoffParams
	validate  *validator.Validate
	opts      []ai.GenerateOption

	codecOnce sync.Once
	codec     tokenCodec
	codecErr  error
}

// NewClient creates an extraction client on top of the given completion
// backend.
func NewClient(params ClientParams) *Client {
	maxTokens := params.MaxInputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxInputTokens
	}
	opts := []ai.GenerateOption{ai.WithTemperature(extractionTemperature)}
	if params.Model != "" {
		opts = append(opts, ai.WithModel(params.Model))
	}
	return &Client{
		ai:        params.AI,
		maxTokens: maxTokens,
		backoff: util.BackoffParams{
			MaxTries:  params.MaxRetries,
			BaseDelay: params.BaseDelay,
		},
		validate: validator.New(),
		opts:     opts,
	}
}

// Extract calls the backend for one paper and returns its validated fact
// bundle. The returned error carries an ai.ErrorKind classification.
func (c *Client) Extract(ctx context.Context, paper common.PaperRecord) (*FactBundle, error) {
	input, err := c.buildInput(paper)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare paper text: %w", err)
	}

	systemPrompt := fmt.Sprintf(
		ai.ExtractFactsPrompt,
		util.SanitizePromptText(paper.Title),
		strings.Join(paper.Categories, ", "),
	)

	opts := append([]ai.GenerateOption{ai.WithSystemPrompts(systemPrompt)}, c.opts...)
	return util.RetryWithBackoff(ctx, c.backoff, func(ctx context.Context) (*FactBundle, error) {
		var bundle FactBundle
		err := c.ai.GenerateCompletionWithFormat(
			ctx,
			"extract_paper_facts",
			"Extract equations, methodologies, technologies and causal relationships from a scientific paper.",
			input,
			&bundle,
			opts...,
		)
		if err != nil {
			return nil, err
		}
		if err := c.validate.Struct(&bundle); err != nil {
			return nil, ai.NewBackendError(
				ai.ErrMalformedOutput,
				fmt.Errorf("response failed schema validation: %w", err),
			)
		}
		return &bundle, nil
	})
}

// buildInput assembles the prompt body from the abstract and full text,
// trimming the full text to the token budget. The abstract is always kept
// whole; when the full text exceeds the budget its head and tail are kept
// and the middle dropped, biasing toward introduction and conclusion.
func (c *Client) buildInput(paper common.PaperRecord) (string, error) {
	abstract := util.SanitizePromptText(paper.Abstract)
	fullText := util.SanitizePromptText(paper.FullText)

	var b strings.Builder
	if abstract != "" {
		b.WriteString("Abstract: ")
		b.WriteString(abstract)
	}
	if fullText == "" {
		return b.String(), nil
	}

	trimmed, err := c.trimToBudget(fullText, c.maxTokens)
	if err != nil {
		return "", err
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(trimmed)
	return b.String(), nil
}

func (c *Client) trimToBudget(text string, budget int) (string, error) {
	// A BPE token covers at least one byte, so text with no more bytes
	// than the budget cannot exceed it. Anything longer gets tokenized.
	if len(text) <= budget {
		return text, nil
	}

	codec, err := c.tokenCodec()
	if err != nil {
		return "", err
	}
	tokens := codec.Encode(text)
	if len(tokens) <= budget {
		return text, nil
	}

	head := budget * 2 / 3
	tail := budget - head
	return codec.Decode(tokens[:head]) + " ... " + codec.Decode(tokens[len(tokens)-tail:]), nil
}

func (c *Client) tokenCodec() (tokenCodec, error) {
	c.codecOnce.Do(func() {
		if c.codec != nil {
			return
		}
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			c.codecErr = err
			return
		}
		c.codec = &tiktokenCodec{enc: enc}
	})
	return c.codec, c.codecErr
}
