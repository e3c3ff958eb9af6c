package fact

import (
	"testing"

	"github.com/sciweave/papergraph/pkg/common"
)

func TestPaperKey(t *testing.T) {
	key := PaperKey("2401.00123")
	if key.Kind != common.KindPaper || key.Value != "2401.00123" {
		t.Fatalf("unexpected key %v", key)
	}
	if key.String() != "paper:2401.00123" {
		t.Fatalf("unexpected key string %q", key.String())
	}
}

func TestEntityKeyMatchesAcrossPapers(t *testing.T) {
	n := NewNormalizer(nil)

	a, ok := n.EntityKey(common.KindMethodology, "Gradient Descent")
	if !ok {
		t.Fatal("expected key for non-empty label")
	}
	b, ok := n.EntityKey(common.KindMethodology, "  gradient   descent.")
	if !ok {
		t.Fatal("expected key for non-empty label")
	}
	if a != b {
		t.Fatalf("expected matching keys, got %v and %v", a, b)
	}
}

func TestEntityKeyKindsStayDistinct(t *testing.T) {
	n := NewNormalizer(nil)

	m, _ := n.EntityKey(common.KindMethodology, "transformer")
	c, _ := n.ConceptKey("transformer")
	if m == c {
		t.Fatalf("same label in different kinds must not collide: %v", m)
	}
	if c.Kind != common.KindConcept {
		t.Fatalf("unexpected concept key kind %q", c.Kind)
	}
}

func TestEntityKeyRejectsEmptyLabel(t *testing.T) {
	n := NewNormalizer(nil)

	if _, ok := n.EntityKey(common.KindTechnology, "   "); ok {
		t.Fatal("expected no key for whitespace-only label")
	}
	if _, ok := n.ConceptKey("..."); ok {
		t.Fatal("expected no key for punctuation-only label")
	}
}

func TestCategoryKey(t *testing.T) {
	key, ok := CategoryKey(" cs.LG ")
	if !ok {
		t.Fatal("expected key for category code")
	}
	if key.Kind != common.KindCategory || key.Value != "cs.lg" {
		t.Fatalf("unexpected key %v", key)
	}
	if _, ok := CategoryKey(""); ok {
		t.Fatal("expected no key for empty code")
	}
}

func TestAuthorKey(t *testing.T) {
	n := NewNormalizer(nil)

	a, ok := n.AuthorKey("Yoshua  Bengio")
	if !ok || a.Value != "yoshua bengio" || a.Kind != common.KindAuthor {
		t.Fatalf("unexpected key %v, %v", a, ok)
	}
}
