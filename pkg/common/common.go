package common

// PaperStatus tracks a paper's progress through the pipeline. Transitions
// are pending → extracting → (succeeded | failed); a status never regresses
// except on an explicit re-run.
type PaperStatus string

const (
	StatusPending    PaperStatus = "pending"
	StatusExtracting PaperStatus = "extracting"
	StatusSucceeded  PaperStatus = "succeeded"
	StatusFailed     PaperStatus = "failed"
)

// FailureReason records why a paper was marked failed.
type FailureReason string

const (
	ReasonExtractionUnavailable FailureReason = "extraction-unavailable"
	ReasonMalformedOutput       FailureReason = "malformed-output"
	ReasonStoreUnavailable      FailureReason = "store-unavailable"
	ReasonIdentityConflict      FailureReason = "identity-conflict"
)

// PaperRecord is one paper as delivered by the ingestion boundary. The
// record is immutable after creation; only the processing status on the
// stored Paper node changes.
type PaperRecord struct {
	ExternalID string   `json:"external_id"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	FullText   string   `json:"full_text,omitempty"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
	Published  string   `json:"published,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	DOI        string   `json:"doi,omitempty"`
	JournalRef string   `json:"journal_ref,omitempty"`
}

// NodeKind identifies the kind of graph node a key refers to.
type NodeKind string

const (
	KindPaper       NodeKind = "paper"
	KindAuthor      NodeKind = "author"
	KindCategory    NodeKind = "category"
	KindEquation    NodeKind = "equation"
	KindMethodology NodeKind = "methodology"
	KindTechnology  NodeKind = "technology"
	KindConcept     NodeKind = "concept"
)

// Key is the stable identity of a graph node. Two facts with the same key
// resolve to the same node regardless of which paper produced them or in
// which order they were written.
type Key struct {
	Kind  NodeKind `json:"kind"`
	Value string   `json:"value"`
}

// String renders the key in "kind:value" form, useful for map keys and logs.
func (k Key) String() string {
	return string(k.Kind) + ":" + k.Value
}

// Entity is a normalized, keyed extracted entity (equation, methodology
// or technology) attributed to one paper.
type Entity struct {
	Key         Key    `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CausalLink is a directed cause → effect edge extracted from one paper.
// Cause and Effect are canonical concept labels; the keys are their
// Concept-node identities. A link is unique by (cause, effect, paper).
type CausalLink struct {
	CauseKey    Key     `json:"cause_key"`
	EffectKey   Key     `json:"effect_key"`
	Cause       string  `json:"cause"`
	Effect      string  `json:"effect"`
	Explanation string  `json:"explanation,omitempty"`
	PaperID     string  `json:"paper_id"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// PaperFacts is the fully normalized, keyed fact set of one paper, ready
// for a single atomic upsert.
type PaperFacts struct {
	PaperID  string       `json:"paper_id"`
	Entities []Entity     `json:"entities"`
	Links    []CausalLink `json:"links"`
}

// CausalChain is a derived two-hop record: an initial cause leading
// through an intermediate effect to a final effect, possibly across
// papers. Chains are recomputed from the CausalLink edge set, never
// authored directly.
type CausalChain struct {
	InitialCause       string `json:"initial_cause"`
	IntermediateEffect string `json:"intermediate_effect"`
	FinalEffect        string `json:"final_effect"`
	ExplanationStep1   string `json:"explanation_step1,omitempty"`
	ExplanationStep2   string `json:"explanation_step2,omitempty"`
}

// SharedCause is one contributing cause inside a SharedEffectGroup.
type SharedCause struct {
	Cause       string `json:"cause"`
	Explanation string `json:"explanation,omitempty"`
}

// SharedEffectGroup is a derived record grouping two or more distinct
// causes that converge on one effect.
type SharedEffectGroup struct {
	Effect string        `json:"shared_effect"`
	Causes []SharedCause `json:"causes"`
}

// PaperFailure records one failed paper in a run summary.
type PaperFailure struct {
	PaperID string        `json:"paper_id"`
	Reason  FailureReason `json:"reason"`
}

// RunSummary reports the outcome of one batch run. A non-zero Failed count
// is not a run-level error; every paper reached a terminal state.
type RunSummary struct {
	RunID     string         `json:"run_id"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Chains    int            `json:"causal_chains"`
	Groups    int            `json:"shared_effects"`
	Failures  []PaperFailure `json:"failures,omitempty"`
}
