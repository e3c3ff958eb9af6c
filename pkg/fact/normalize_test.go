package fact

import (
	"testing"
)

func TestCanonical(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"lowercases", "Dropout", "dropout", true},
		{"trims whitespace", "  overfitting  ", "overfitting", true},
		{"collapses internal whitespace", "gradient \t descent", "gradient descent", true},
		{"strips trailing punctuation", "regularization.", "regularization", true},
		{"strips stacked trailing punctuation", "attention!?", "attention", true},
		{"keeps internal punctuation", "state-space model", "state-space model", true},
		{"folds synonym after canonicalization", "Deep-Learning", "deep learning", true},
		{"empty", "", "", false},
		{"whitespace only", "   \t\n", "", false},
		{"punctuation only", "...", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Canonical(tt.raw)
			if ok != tt.ok {
				t.Fatalf("Canonical(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("Canonical(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalSpellingVariantsConverge(t *testing.T) {
	n := NewNormalizer(nil)

	a, ok := n.Canonical("Deep Learning ")
	if !ok {
		t.Fatalf("expected ok for %q", "Deep Learning ")
	}
	b, ok := n.Canonical("deep-learning")
	if !ok {
		t.Fatalf("expected ok for %q", "deep-learning")
	}
	if a != b {
		t.Fatalf("variants did not converge: %q vs %q", a, b)
	}
}

func TestNewNormalizerExtraSynonyms(t *testing.T) {
	n := NewNormalizer(map[string]string{
		"  CNNs ": "Convolutional Neural Networks",
	})

	got, ok := n.Canonical("CNNs")
	if !ok || got != "convolutional neural networks" {
		t.Fatalf("Canonical(%q) = %q, %v", "CNNs", got, ok)
	}

	// Defaults survive the merge.
	got, ok = n.Canonical("neural net")
	if !ok || got != "neural network" {
		t.Fatalf("Canonical(%q) = %q, %v", "neural net", got, ok)
	}
}
