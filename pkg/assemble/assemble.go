// Package assemble derives the queryable causal views from the persisted
// CAUSES edge set. Both derivations are pure functions with deterministic
// output order, so re-assembling an unchanged edge set yields an identical
// result.
package assemble

import (
	"sort"

	"github.com/sciweave/papergraph/pkg/common"
)

// Chains returns every two-hop causal chain in the edge set: pairs of edges
// where the first edge's effect is the second edge's cause. Edges from
// different papers chain freely. Self-loop edges and chains that cycle back
// to their own initial cause are excluded, and exact duplicate chains are
// reported once.
func Chains(links []common.CausalLink) []common.CausalChain {
	byCause := make(map[common.Key][]common.CausalLink)
	for _, link := range links {
		if link.CauseKey == link.EffectKey {
			continue
		}
		byCause[link.CauseKey] = append(byCause[link.CauseKey], link)
	}

	seen := make(map[common.CausalChain]struct{})
	var chains []common.CausalChain
	for _, first := range links {
		if first.CauseKey == first.EffectKey {
			continue
		}
		for _, second := range byCause[first.EffectKey] {
			if second.EffectKey == first.CauseKey {
				continue
			}
			chain := common.CausalChain{
				InitialCause:       first.Cause,
				IntermediateEffect: first.Effect,
				FinalEffect:        second.Effect,
				ExplanationStep1:   first.Explanation,
				ExplanationStep2:   second.Explanation,
			}
			if _, ok := seen[chain]; ok {
				continue
			}
			seen[chain] = struct{}{}
			chains = append(chains, chain)
		}
	}

	sort.Slice(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if a.InitialCause != b.InitialCause {
			return a.InitialCause < b.InitialCause
		}
		if a.IntermediateEffect != b.IntermediateEffect {
			return a.IntermediateEffect < b.IntermediateEffect
		}
		if a.FinalEffect != b.FinalEffect {
			return a.FinalEffect < b.FinalEffect
		}
		if a.ExplanationStep1 != b.ExplanationStep1 {
			return a.ExplanationStep1 < b.ExplanationStep1
		}
		return a.ExplanationStep2 < b.ExplanationStep2
	})
	return chains
}

// SharedEffects returns every effect that at least two distinct causes
// converge on, with one entry per contributing cause. When the same cause
// reaches the effect through multiple papers, the explanation of the first
// edge in deterministic order is used.
func SharedEffects(links []common.CausalLink) []common.SharedEffectGroup {
	sorted := make([]common.CausalLink, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.EffectKey.Value != b.EffectKey.Value {
			return a.EffectKey.Value < b.EffectKey.Value
		}
		if a.CauseKey.Value != b.CauseKey.Value {
			return a.CauseKey.Value < b.CauseKey.Value
		}
		return a.PaperID < b.PaperID
	})

	type group struct {
		effect string
		causes []common.SharedCause
		seen   map[common.Key]struct{}
	}
	groupsByEffect := make(map[common.Key]*group)
	var order []common.Key
	for _, link := range sorted {
		if link.CauseKey == link.EffectKey {
			continue
		}
		g, ok := groupsByEffect[link.EffectKey]
		if !ok {
			g = &group{effect: link.Effect, seen: make(map[common.Key]struct{})}
			groupsByEffect[link.EffectKey] = g
			order = append(order, link.EffectKey)
		}
		if _, ok := g.seen[link.CauseKey]; ok {
			continue
		}
		g.seen[link.CauseKey] = struct{}{}
		g.causes = append(g.causes, common.SharedCause{
			Cause:       link.Cause,
			Explanation: link.Explanation,
		})
	}

	var groups []common.SharedEffectGroup
	for _, key := range order {
		g := groupsByEffect[key]
		if len(g.causes) < 2 {
			continue
		}
		groups = append(groups, common.SharedEffectGroup{
			Effect: g.effect,
			Causes: g.causes,
		})
	}
	return groups
}
