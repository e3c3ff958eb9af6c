package neo4j

import (
	"errors"
	"testing"

	"github.com/sciweave/papergraph/internal/util"
	"github.com/sciweave/papergraph/pkg/common"
	"github.com/sciweave/papergraph/pkg/store"
)

func TestEntityShapesCoverExtractedKinds(t *testing.T) {
	tests := []struct {
		kind  common.NodeKind
		label string
		edge  string
	}{
		{common.KindEquation, "Equation", "MENTIONS_EQUATION"},
		{common.KindMethodology, "Methodology", "USES_METHODOLOGY"},
		{common.KindTechnology, "Technology", "USES_TECHNOLOGY"},
	}
	for _, tt := range tests {
		shape, ok := entityShapes[tt.kind]
		if !ok {
			t.Fatalf("missing shape for kind %q", tt.kind)
		}
		if shape.label != tt.label || shape.edge != tt.edge {
			t.Fatalf("kind %q: got (%s, %s), want (%s, %s)",
				tt.kind, shape.label, shape.edge, tt.label, tt.edge)
		}
	}

	// Concepts and papers are written by dedicated queries, never through
	// the entity table.
	if _, ok := entityShapes[common.KindConcept]; ok {
		t.Fatal("concepts must not be written through the entity table")
	}
	if _, ok := entityShapes[common.KindPaper]; ok {
		t.Fatal("papers must not be written through the entity table")
	}
}

func TestClassifyWriteError(t *testing.T) {
	violation := errors.New("Neo.ClientError.Schema.ConstraintValidationFailed: Node(42) already exists")
	classified := classifyWriteError(violation)

	var conflict *store.ConflictError
	if !errors.As(classified, &conflict) {
		t.Fatalf("expected ConflictError, got %T", classified)
	}
	if !errors.Is(classified, violation) {
		t.Fatal("original error must stay in the chain")
	}
	if util.IsRetryable(classified) {
		t.Fatal("uniqueness violations must not be retried")
	}

	plain := errors.New("connection refused")
	if classifyWriteError(plain) != plain {
		t.Fatal("other errors must pass through unwrapped")
	}
	if classifyWriteError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
