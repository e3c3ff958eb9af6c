package fact

import (
	"strings"

	"github.com/sciweave/papergraph/pkg/common"
)

// PaperKey identifies a Paper node by its external identifier. The id is
// used verbatim; external ids are already stable and case-sensitive.
func PaperKey(externalID string) common.Key {
	return common.Key{Kind: common.KindPaper, Value: externalID}
}

// AuthorKey identifies an Author node by canonical name.
func (n *Normalizer) AuthorKey(name string) (common.Key, bool) {
	label, ok := n.Canonical(name)
	if !ok {
		return common.Key{}, false
	}
	return common.Key{Kind: common.KindAuthor, Value: label}, true
}

// CategoryKey identifies a Category node. Category codes (e.g. "cs.LG")
// are taxonomy identifiers, not free text, so only whitespace is trimmed
// and the case is lowered.
func CategoryKey(code string) (common.Key, bool) {
	label := strings.ToLower(strings.TrimSpace(code))
	if label == "" {
		return common.Key{}, false
	}
	return common.Key{Kind: common.KindCategory, Value: label}, true
}

// EntityKey identifies an extracted entity node (equation, methodology or
// technology) by kind plus canonical label.
func (n *Normalizer) EntityKey(kind common.NodeKind, name string) (common.Key, bool) {
	label, ok := n.Canonical(name)
	if !ok {
		return common.Key{}, false
	}
	return common.Key{Kind: kind, Value: label}, true
}

// ConceptKey identifies a Concept node by canonical label. Concepts from
// different papers with the same canonical label share one node.
func (n *Normalizer) ConceptKey(label string) (common.Key, bool) {
	return n.EntityKey(common.KindConcept, label)
}
