// Package pipeline runs the batch: load papers, extract facts from each
// one with bounded concurrency, upsert them into the graph store and
// rebuild the derived causal views.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sciweave/papergraph/internal/util"
	"github.com/sciweave/papergraph/pkg/ai"
	"github.com/sciweave/papergraph/pkg/assemble"
	"github.com/sciweave/papergraph/pkg/common"
	"github.com/sciweave/papergraph/pkg/extract"
	"github.com/sciweave/papergraph/pkg/fact"
	"github.com/sciweave/papergraph/pkg/logger"
	"github.com/sciweave/papergraph/pkg/store"
)

// Extractor produces one paper's fact bundle.
type Extractor interface {
	Extract(ctx context.Context, paper common.PaperRecord) (*extract.FactBundle, error)
}

// Params configures NewRunner. Zero values select defaults.
type Params struct {
	Extractor   Extractor
	Store       store.GraphStorage
	Normalizer  *fact.Normalizer
	Concurrency int
	// StoreRetries and StoreBaseDelay bound the backoff used for graph
	// writes; extraction retries are the extractor's concern.
	StoreRetries   int
	StoreBaseDelay time.Duration
}

// Runner orchestrates one batch run. Failures are scoped to single papers:
// a paper that cannot be processed is marked failed with a reason and the
// batch moves on.
type Runner struct {
	extractor    Extractor
	store        store.GraphStorage
	normalizer   *fact.Normalizer
	concurrency  int
	storeBackoff util.BackoffParams
}

// NewRunner creates a batch runner.
func NewRunner(params Params) *Runner {
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	storeRetries := params.StoreRetries
	if storeRetries <= 0 {
		storeRetries = 3
	}
	return &Runner{
		extractor:   params.Extractor,
		store:       params.Store,
		normalizer:  params.Normalizer,
		concurrency: concurrency,
		storeBackoff: util.BackoffParams{
			MaxTries:  storeRetries,
			BaseDelay: params.StoreBaseDelay,
		},
	}
}

// Run processes every paper to a terminal state and rebuilds the derived
// views. The returned summary reports per-paper outcomes; failed papers are
// not a run-level error. Run itself fails only when the batch cannot make
// progress at all (canceled context, schema setup or assembly failure).
func (r *Runner) Run(ctx context.Context, papers []common.PaperRecord) (*common.RunSummary, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	logger.Info("starting batch run", "run_id", runID, "papers", len(papers))

	if err := r.store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure graph schema: %w", err)
	}

	summary := &common.RunSummary{RunID: runID, Total: len(papers)}
	var summaryMu sync.Mutex

	recordFailure := func(paperID string, reason common.FailureReason) {
		summaryMu.Lock()
		summary.Failed++
		summary.Failures = append(summary.Failures, common.PaperFailure{
			PaperID: paperID,
			Reason:  reason,
		})
		summaryMu.Unlock()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, paper := range papers {
		p := paper
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			default:
			}

			reason, err := r.processPaper(gCtx, p)
			if err != nil {
				// Interrupted mid-paper: the stored status stays as it
				// was, never flipped to a spurious terminal state.
				return err
			}
			if reason == "" {
				summaryMu.Lock()
				summary.Succeeded++
				summaryMu.Unlock()
				return nil
			}
			recordFailure(p.ExternalID, reason)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chains, groups, err := r.assembleDerived(ctx)
	if err != nil {
		return nil, err
	}
	summary.Chains = chains
	summary.Groups = groups

	logger.Info("batch run finished",
		"run_id", runID,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"causal_chains", summary.Chains,
		"shared_effects", summary.Groups,
	)
	return summary, nil
}

// processPaper drives one paper to a terminal state. It returns the empty
// reason on success, or the failure reason the paper was marked with. A
// non-nil error means the run was interrupted before the paper reached a
// terminal state; its stored status is left untouched.
func (r *Runner) processPaper(ctx context.Context, paper common.PaperRecord) (common.FailureReason, error) {
	err := util.RetryErrWithBackoff(ctx, r.storeBackoff, func(ctx context.Context) error {
		return r.store.EnsurePaper(ctx, paper)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Error("failed to ensure paper node", "paper", paper.ExternalID, "error", err)
		return r.failPaper(ctx, paper.ExternalID, common.ReasonStoreUnavailable), nil
	}

	if err := r.store.SetPaperStatus(ctx, paper.ExternalID, common.StatusExtracting, ""); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Error("failed to mark paper extracting", "paper", paper.ExternalID, "error", err)
		return r.failPaper(ctx, paper.ExternalID, common.ReasonStoreUnavailable), nil
	}

	bundle, err := r.extractor.Extract(ctx, paper)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		reason := extractionFailureReason(err)
		logger.Warn("extraction failed",
			"paper", paper.ExternalID,
			"reason", reason,
			"error", err,
		)
		return r.failPaper(ctx, paper.ExternalID, reason), nil
	}

	facts := resolveFacts(r.normalizer, paper.ExternalID, bundle)
	err = util.RetryErrWithBackoff(ctx, r.storeBackoff, func(ctx context.Context) error {
		return r.store.UpsertPaperFacts(ctx, facts)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			logger.Error("identity conflict writing paper facts, data-integrity bug",
				"paper", paper.ExternalID,
				"error", err,
			)
			return r.failPaper(ctx, paper.ExternalID, common.ReasonIdentityConflict), nil
		}
		logger.Error("failed to upsert paper facts", "paper", paper.ExternalID, "error", err)
		return r.failPaper(ctx, paper.ExternalID, common.ReasonStoreUnavailable), nil
	}

	logger.Debug("paper processed",
		"paper", paper.ExternalID,
		"entities", len(facts.Entities),
		"links", len(facts.Links),
	)
	return "", nil
}

// failPaper records the failed status. When even the status write fails the
// reason is still reported in the summary, only the store marker is missing.
func (r *Runner) failPaper(ctx context.Context, paperID string, reason common.FailureReason) common.FailureReason {
	err := util.RetryErrWithBackoff(ctx, r.storeBackoff, func(ctx context.Context) error {
		return r.store.SetPaperStatus(ctx, paperID, common.StatusFailed, reason)
	})
	if err != nil {
		logger.Error("failed to mark paper failed", "paper", paperID, "error", err)
	}
	return reason
}

func (r *Runner) assembleDerived(ctx context.Context) (int, int, error) {
	links, err := util.RetryWithBackoff(ctx, r.storeBackoff, func(ctx context.Context) ([]common.CausalLink, error) {
		return r.store.ListCausalLinks(ctx)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list causal links for assembly: %w", err)
	}

	chains := assemble.Chains(links)
	groups := assemble.SharedEffects(links)

	err = util.RetryErrWithBackoff(ctx, r.storeBackoff, func(ctx context.Context) error {
		return r.store.ReplaceDerived(ctx, chains, groups)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to replace derived records: %w", err)
	}
	return len(chains), len(groups), nil
}

// extractionFailureReason maps a backend error classification to the
// paper-level failure reason.
func extractionFailureReason(err error) common.FailureReason {
	if ai.KindOf(err) == ai.ErrMalformedOutput {
		return common.ReasonMalformedOutput
	}
	return common.ReasonExtractionUnavailable
}
