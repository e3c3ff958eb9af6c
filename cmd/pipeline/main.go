package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sciweave/papergraph/internal/pipeline"
	"github.com/sciweave/papergraph/internal/util"
	"github.com/sciweave/papergraph/pkg/ai"
	oai "github.com/sciweave/papergraph/pkg/ai/ollama"
	gai "github.com/sciweave/papergraph/pkg/ai/openai"
	"github.com/sciweave/papergraph/pkg/extract"
	"github.com/sciweave/papergraph/pkg/fact"
	"github.com/sciweave/papergraph/pkg/logger"
	"github.com/sciweave/papergraph/pkg/logger/console"
	neostore "github.com/sciweave/papergraph/pkg/store/neo4j"
)

const (
	defaultModel        = "mistralai/mixtral-8x7b-instruct"
	defaultBaseURL      = "https://openrouter.ai/api/v1"
	defaultMetadataPath = "arxiv_dataset/arxiv-metadata-oai-snapshot.json"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// extraction backend
	adapter := util.GetEnv("AI_ADAPTER")
	var (
		aiClient        ai.Client
		extractionModel string
	)

	switch adapter {
	case "ollama":
		extractionModel = util.GetEnv("AI_CHAT_EXTRACT_MODEL")
		client, err := oai.NewExtractOllamaClient(oai.NewExtractOllamaClientParams{
			ExtractionModel:       extractionModel,
			BaseURL:               util.GetEnv("AI_CHAT_URL"),
			APIKey:                util.GetEnv("AI_CHAT_KEY"),
			MaxConcurrentRequests: int64(util.GetEnvInt("AI_MAX_CONCURRENT_REQUESTS", 1)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		aiClient = client
	default:
		apiKey := util.GetEnv("OPENROUTER_API_KEY")
		if apiKey == "" {
			logger.Fatal("OPENROUTER_API_KEY is not set")
		}
		extractionModel = util.GetEnvString("OPENROUTER_MODEL", defaultModel)
		aiClient = gai.NewExtractOpenAIClient(gai.NewExtractOpenAIClientParams{
			ExtractionModel: extractionModel,
			BaseURL:         util.GetEnvString("AI_CHAT_URL", defaultBaseURL),
			APIKey:          apiKey,
		})
	}

	normalizer := fact.NewNormalizer(nil)

	// graph store
	graphStore, err := neostore.NewStore(ctx, neostore.Params{
		URI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Username: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
		Password: util.GetEnvString("NEO4J_PASSWORD", "password"),
	}, normalizer)
	if err != nil {
		logger.Fatal("Could not connect to Neo4j", "err", err)
	}
	defer func() {
		if err := graphStore.Close(context.Background()); err != nil {
			logger.Warn("Failed to close Neo4j driver", "err", err)
		}
	}()

	if util.GetEnvBool("RESET_GRAPH", false) {
		if err := graphStore.Reset(ctx); err != nil {
			logger.Fatal("Could not reset graph", "err", err)
		}
	}

	// papers
	metadataPath := util.GetEnvString("METADATA_PATH", defaultMetadataPath)
	limit := util.GetEnvInt("PIPELINE_LIMIT", 10)
	papers, err := pipeline.LoadSnapshot(metadataPath, limit)
	if err != nil {
		logger.Fatal("Could not load paper metadata", "err", err)
	}
	if len(papers) == 0 {
		logger.Fatal("No papers found in metadata snapshot", "path", metadataPath)
	}

	extractor := extract.NewClient(extract.ClientParams{
		AI:             aiClient,
		Model:          extractionModel,
		MaxInputTokens: util.GetEnvInt("PIPELINE_MAX_INPUT_TOKENS", 0),
		MaxRetries:     util.GetEnvInt("PIPELINE_MAX_RETRIES", 5),
	})

	runner := pipeline.NewRunner(pipeline.Params{
		Extractor:   extractor,
		Store:       graphStore,
		Normalizer:  normalizer,
		Concurrency: util.GetEnvInt("PIPELINE_CONCURRENCY", 4),
	})

	start := time.Now()
	summary, err := runner.Run(ctx, papers)
	if err != nil {
		logger.Fatal("Batch run aborted", "err", err)
	}

	for _, failure := range summary.Failures {
		logger.Warn("Paper failed", "paper", failure.PaperID, "reason", failure.Reason)
	}

	metrics := aiClient.GetMetrics()
	logger.Info("Run complete",
		"run_id", summary.RunID,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"causal_chains", summary.Chains,
		"shared_effects", summary.Groups,
		"input_tokens", metrics.InputTokens,
		"output_tokens", metrics.OutputTokens,
		"duration", time.Since(start).Round(time.Second),
	)
}
