package pipeline

import (
	"github.com/sciweave/papergraph/pkg/common"
	"github.com/sciweave/papergraph/pkg/extract"
	"github.com/sciweave/papergraph/pkg/fact"
)

// resolveFacts turns one paper's raw FactBundle into a normalized, keyed
// fact set. Facts whose labels canonicalize to the empty string are dropped
// rather than stored. A two-step causal link decomposes into up to two
// edges; a shared effect decomposes into exactly two.
func resolveFacts(normalizer *fact.Normalizer, paperID string, bundle *extract.FactBundle) common.PaperFacts {
	facts := common.PaperFacts{PaperID: paperID}

	seenEntities := make(map[common.Key]struct{})
	addEntity := func(kind common.NodeKind, item extract.NamedFact) {
		key, ok := normalizer.EntityKey(kind, item.Name)
		if !ok {
			return
		}
		if _, ok := seenEntities[key]; ok {
			return
		}
		seenEntities[key] = struct{}{}
		facts.Entities = append(facts.Entities, common.Entity{
			Key:         key,
			Name:        key.Value,
			Description: item.Description,
		})
	}
	for _, item := range bundle.Equations {
		addEntity(common.KindEquation, item)
	}
	for _, item := range bundle.Methodologies {
		addEntity(common.KindMethodology, item)
	}
	for _, item := range bundle.Technologies {
		addEntity(common.KindTechnology, item)
	}

	type linkIdentity struct {
		cause, effect common.Key
	}
	seenLinks := make(map[linkIdentity]struct{})
	addLink := func(cause, effect, explanation string, confidence float64) {
		causeKey, ok := normalizer.ConceptKey(cause)
		if !ok {
			return
		}
		effectKey, ok := normalizer.ConceptKey(effect)
		if !ok {
			return
		}
		identity := linkIdentity{cause: causeKey, effect: effectKey}
		if _, ok := seenLinks[identity]; ok {
			return
		}
		seenLinks[identity] = struct{}{}
		facts.Links = append(facts.Links, common.CausalLink{
			CauseKey:    causeKey,
			EffectKey:   effectKey,
			Cause:       causeKey.Value,
			Effect:      effectKey.Value,
			Explanation: explanation,
			PaperID:     paperID,
			Confidence:  confidence,
		})
	}

	for _, link := range bundle.CausalLinks {
		addLink(link.InitialCause, link.IntermediateEffect, link.ExplanationStep1, link.Confidence)
		if link.FinalEffect != "" {
			addLink(link.IntermediateEffect, link.FinalEffect, link.ExplanationStep2, link.Confidence)
		}
	}
	for _, shared := range bundle.SharedEffects {
		addLink(shared.CauseA, shared.SharedEffect, shared.WhyAToEffect, 0)
		addLink(shared.CauseB, shared.SharedEffect, shared.WhyBToEffect, 0)
	}

	return facts
}
