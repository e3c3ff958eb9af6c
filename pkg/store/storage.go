package store

import (
	"context"

	"github.com/sciweave/papergraph/pkg/common"
)

// ConflictError reports a store-level uniqueness violation. Deterministic
// keys make this unreachable in normal operation, so one signals a
// data-integrity bug for the affected paper. It is never retried.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	return "identity conflict: " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the write can succeed; for a
// uniqueness violation it cannot.
func (e *ConflictError) Retryable() bool {
	return false
}

// GraphStorage defines the interface for persisting the paper knowledge
// graph. Implementations must provide atomic merge-by-key semantics: merging
// the same node or edge twice yields one record, and one paper's fact set is
// applied all-or-nothing.
type GraphStorage interface {
	// EnsureSchema creates the uniqueness constraints backing merge-by-key.
	// Safe to call on every startup.
	EnsureSchema(ctx context.Context) error

	// Reset removes all nodes and edges. Development use only.
	Reset(ctx context.Context) error

	// EnsurePaper merges the Paper node with its metadata, authors and
	// categories, and moves its status to pending if the paper is new.
	EnsurePaper(ctx context.Context, paper common.PaperRecord) error

	// SetPaperStatus updates the processing status of one paper. The reason
	// is recorded for failed status and cleared otherwise.
	SetPaperStatus(ctx context.Context, paperID string, status common.PaperStatus, reason common.FailureReason) error

	// UpsertPaperFacts applies one paper's normalized fact set in a single
	// transaction and marks the paper succeeded within that transaction.
	UpsertPaperFacts(ctx context.Context, facts common.PaperFacts) error

	// ListCausalLinks returns every CAUSES edge in the graph, for derived
	// view assembly.
	ListCausalLinks(ctx context.Context) ([]common.CausalLink, error)

	// ReplaceDerived atomically replaces all derived causal-chain and
	// shared-effect records with the given set.
	ReplaceDerived(ctx context.Context, chains []common.CausalChain, groups []common.SharedEffectGroup) error

	Close(ctx context.Context) error
}
