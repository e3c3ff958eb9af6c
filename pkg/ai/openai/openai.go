package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sciweave/papergraph/pkg/ai"
)

// ExtractOpenAIClient implements ai.Client against any OpenAI-compatible
// chat-completion API. OpenRouter exposes the same wire protocol, so the
// same adapter serves both hosted backends.
//
// An ExtractOpenAIClient should be created using NewExtractOpenAIClient.
type ExtractOpenAIClient struct {
	extractionModel string

	baseURL string
	apiKey  string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewExtractOpenAIClientParams defines the configuration for creating a
// new ExtractOpenAIClient.
//
// ExtractionModel is the model used for fact extraction. BaseURL may point
// at any OpenAI-compatible endpoint; when empty the official API is used.
type NewExtractOpenAIClientParams struct {
	ExtractionModel string

	BaseURL string
	APIKey  string
}

// NewExtractOpenAIClient creates a new client for an OpenAI-compatible
// completion backend.
//
// Example:
//
//	client := openai.NewExtractOpenAIClient(openai.NewExtractOpenAIClientParams{
//		ExtractionModel: "mistralai/mixtral-8x7b-instruct",
//		BaseURL:         "https://openrouter.ai/api/v1",
//		APIKey:          os.Getenv("OPENROUTER_API_KEY"),
//	})
func NewExtractOpenAIClient(params NewExtractOpenAIClientParams) *ExtractOpenAIClient {
	return &ExtractOpenAIClient{
		extractionModel: params.ExtractionModel,

		baseURL: params.BaseURL,
		apiKey:  params.APIKey,

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient: newOpenaiClient(params.BaseURL, params.APIKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *ExtractOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since
// the last reset.
func (c *ExtractOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *ExtractOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}
