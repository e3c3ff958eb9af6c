package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sciweave/papergraph/pkg/ai"
	"github.com/sciweave/papergraph/pkg/common"
)

type fakeAI struct {
	calls   int
	fn      func(out any) error
	gotOpts []ai.GenerateOption
}

func (f *fakeAI) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeAI) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.calls++
	f.gotOpts = opts
	return f.fn(out)
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testPaper() common.PaperRecord {
	return common.PaperRecord{
		ExternalID: "2401.00123",
		Title:      "Dropout as Regularization",
		Abstract:   "We study dropout.",
		FullText:   "Dropout randomly disables units during training.",
		Categories: []string{"cs.LG"},
	}
}

func newTestClient(backend ai.Client, maxRetries int) *Client {
	return NewClient(ClientParams{
		AI:         backend,
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
	})
}

func TestExtractReturnsValidatedBundle(t *testing.T) {
	backend := &fakeAI{fn: func(out any) error {
		bundle := out.(*FactBundle)
		*bundle = FactBundle{
			Methodologies: []NamedFact{{Name: "dropout", Description: "random unit masking"}},
			CausalLinks: []CausalLink{{
				InitialCause:       "dropout",
				IntermediateEffect: "reduced co-adaptation",
				ExplanationStep1:   "units cannot rely on specific partners",
			}},
		}
		return nil
	}}

	client := newTestClient(backend, 3)
	bundle, err := client.Extract(context.Background(), testPaper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", backend.calls)
	}
	if len(bundle.Methodologies) != 1 || bundle.Methodologies[0].Name != "dropout" {
		t.Fatalf("unexpected methodologies %v", bundle.Methodologies)
	}
	if len(bundle.CausalLinks) != 1 {
		t.Fatalf("unexpected causal links %v", bundle.CausalLinks)
	}
}

func TestExtractValidationFailureIsMalformedAndTerminal(t *testing.T) {
	backend := &fakeAI{fn: func(out any) error {
		bundle := out.(*FactBundle)
		// Missing explanation_step1.
		*bundle = FactBundle{
			CausalLinks: []CausalLink{{
				InitialCause:       "dropout",
				IntermediateEffect: "reduced co-adaptation",
			}},
		}
		return nil
	}}

	client := newTestClient(backend, 5)
	_, err := client.Extract(context.Background(), testPaper())
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := ai.KindOf(err); kind != ai.ErrMalformedOutput {
		t.Fatalf("expected malformed_output, got %q (%v)", kind, err)
	}
	if backend.calls != 1 {
		t.Fatalf("malformed output must not be retried, got %d calls", backend.calls)
	}
}

func TestExtractRetriesTransientErrorsUntilExhausted(t *testing.T) {
	backend := &fakeAI{fn: func(out any) error {
		return ai.NewBackendError(ai.ErrRateLimited, errors.New("429"))
	}}

	client := newTestClient(backend, 4)
	_, err := client.Extract(context.Background(), testPaper())
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := ai.KindOf(err); kind != ai.ErrRateLimited {
		t.Fatalf("expected rate_limited, got %q", kind)
	}
	if backend.calls != 4 {
		t.Fatalf("expected exactly 4 attempts, got %d", backend.calls)
	}
}

func TestExtractAuthErrorIsTerminal(t *testing.T) {
	backend := &fakeAI{fn: func(out any) error {
		return ai.NewBackendError(ai.ErrAuthError, errors.New("401"))
	}}

	client := newTestClient(backend, 5)
	_, err := client.Extract(context.Background(), testPaper())
	if err == nil {
		t.Fatal("expected error")
	}
	if backend.calls != 1 {
		t.Fatalf("auth errors must not be retried, got %d calls", backend.calls)
	}
}

func TestExtractRecoversAfterTransientFailure(t *testing.T) {
	backend := &fakeAI{}
	backend.fn = func(out any) error {
		if backend.calls < 3 {
			return ai.NewBackendError(ai.ErrTransientNetwork, errors.New("dial timeout"))
		}
		*(out.(*FactBundle)) = FactBundle{}
		return nil
	}

	client := newTestClient(backend, 5)
	bundle, err := client.Extract(context.Background(), testPaper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle == nil {
		t.Fatal("expected bundle")
	}
	if backend.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", backend.calls)
	}
}

// fieldCodec tokenizes on whitespace, one token per word. It stands in for
// the BPE codec so truncation behavior is checked without an encoding file.
type fieldCodec struct {
	words []string
}

func (c *fieldCodec) Encode(text string) []int {
	c.words = strings.Fields(text)
	tokens := make([]int, len(c.words))
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}

func (c *fieldCodec) Decode(tokens []int) string {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, c.words[tok])
	}
	return strings.Join(words, " ")
}

func TestExtractAppliesModelAndTemperature(t *testing.T) {
	backend := &fakeAI{fn: func(out any) error {
		*(out.(*FactBundle)) = FactBundle{}
		return nil
	}}
	client := NewClient(ClientParams{
		AI:         backend,
		Model:      "mistralai/mixtral-8x7b-instruct",
		MaxRetries: 1,
	})

	if _, err := client.Extract(context.Background(), testPaper()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var options ai.GenerateOptions
	for _, opt := range backend.gotOpts {
		opt(&options)
	}
	if options.Model != "mistralai/mixtral-8x7b-instruct" {
		t.Fatalf("unexpected model %q", options.Model)
	}
	if options.Temperature != 0.1 {
		t.Fatalf("unexpected temperature %v", options.Temperature)
	}
	if len(options.SystemPrompts) != 1 {
		t.Fatalf("expected one system prompt, got %d", len(options.SystemPrompts))
	}
}

func TestTrimToBudgetShortTokenTextIsTruncated(t *testing.T) {
	client := newTestClient(&fakeAI{}, 1)
	client.codec = &fieldCodec{}

	// Every word is a single token but only two bytes, so byte length
	// alone must not excuse the text from tokenization.
	text := strings.TrimSpace(strings.Repeat("x ", 50))
	trimmed, err := client.trimToBudget(text, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.TrimSpace(strings.Repeat("x ", 6)) +
		" ... " +
		strings.TrimSpace(strings.Repeat("x ", 3))
	if trimmed != want {
		t.Fatalf("got %q, want %q", trimmed, want)
	}
}

func TestTrimToBudgetWithinByteBudgetSkipsTokenization(t *testing.T) {
	client := newTestClient(&fakeAI{}, 1)

	text := "short text"
	trimmed, err := client.trimToBudget(text, len(text))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trimmed != text {
		t.Fatalf("got %q, want %q", trimmed, text)
	}
	if client.codec != nil {
		t.Fatal("byte-budget fast path must not build a codec")
	}
}

func TestTrimToBudgetKeepsTextAtTokenBudget(t *testing.T) {
	client := newTestClient(&fakeAI{}, 1)
	client.codec = &fieldCodec{}

	text := strings.TrimSpace(strings.Repeat("x ", 9))
	trimmed, err := client.trimToBudget(text, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trimmed != text {
		t.Fatalf("text at the token budget must pass untrimmed, got %q", trimmed)
	}
}

func TestBuildInputKeepsShortTextWhole(t *testing.T) {
	client := newTestClient(&fakeAI{}, 1)
	input, err := client.buildInput(testPaper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantAbstract := "Abstract: We study dropout."
	wantBody := "Dropout randomly disables units during training."
	if input != wantAbstract+"\n\n"+wantBody {
		t.Fatalf("unexpected input %q", input)
	}
}
