package fact

import (
	"strings"
	"unicode"
)

// Normalizer canonicalizes free-text labels so that identical real-world
// concepts match across papers. Canonicalization is a pure function:
// identical raw input always yields identical output within one run and
// across runs, which is what makes cross-paper deduplication and
// idempotent re-runs possible.
type Normalizer struct {
	synonyms map[string]string
}

// defaultSynonyms folds common spelling variants onto one canonical form.
// Keys and values must themselves already be in canonical (lower-case,
// single-spaced) form.
var defaultSynonyms = map[string]string{
	"deep-learning":            "deep learning",
	"machine-learning":         "machine learning",
	"neural net":               "neural network",
	"neural nets":              "neural networks",
	"reinforcement-learning":   "reinforcement learning",
	"convolutional neural net": "convolutional neural network",
	"state of the art":         "state-of-the-art",
}

// NewNormalizer creates a Normalizer with the default synonym table, with
// extra entries merged over it. Extra entries are canonicalized before
// insertion so lookups always operate on canonical-form keys.
func NewNormalizer(extra map[string]string) *Normalizer {
	synonyms := make(map[string]string, len(defaultSynonyms)+len(extra))
	for k, v := range defaultSynonyms {
		synonyms[k] = v
	}
	for k, v := range extra {
		synonyms[canonicalize(k)] = canonicalize(v)
	}
	return &Normalizer{synonyms: synonyms}
}

// Canonical maps a raw label to its canonical form. The second return
// value is false when the label is empty or whitespace-only; such labels
// are never materialized as graph nodes.
func (n *Normalizer) Canonical(raw string) (string, bool) {
	canonical := canonicalize(raw)
	if canonical == "" {
		return "", false
	}
	if folded, ok := n.synonyms[canonical]; ok {
		return folded, true
	}
	return canonical, true
}

func canonicalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r)
	})
	return strings.TrimSpace(s)
}
