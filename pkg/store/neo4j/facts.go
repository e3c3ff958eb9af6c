package neo4j

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/sciweave/papergraph/pkg/common"
	"github.com/sciweave/papergraph/pkg/fact"
)

// entityShape maps an extracted entity kind to its node label and the edge
// type connecting the paper to it. Labels are interpolated into Cypher, so
// this fixed table is the only source they may come from.
type entityShape struct {
	label string
	edge  string
}

var entityShapes = map[common.NodeKind]entityShape{
	common.KindEquation:    {label: "Equation", edge: "MENTIONS_EQUATION"},
	common.KindMethodology: {label: "Methodology", edge: "USES_METHODOLOGY"},
	common.KindTechnology:  {label: "Technology", edge: "USES_TECHNOLOGY"},
}

// UpsertPaperFacts applies one paper's fact set inside a single write
// transaction and marks the paper succeeded as part of it. A failure rolls
// everything back, so no partial facts are ever attributable to the paper.
func (s *Store) UpsertPaperFacts(ctx context.Context, facts common.PaperFacts) error {
	paperID := fact.PaperKey(facts.PaperID).Value

	byKind := make(map[common.NodeKind][]map[string]any)
	for _, entity := range facts.Entities {
		if _, ok := entityShapes[entity.Key.Kind]; !ok {
			return fmt.Errorf("unsupported entity kind %q for paper %s", entity.Key.Kind, facts.PaperID)
		}
		byKind[entity.Key.Kind] = append(byKind[entity.Key.Kind], map[string]any{
			"key":         entity.Key.Value,
			"name":        entity.Name,
			"description": entity.Description,
		})
	}

	links := make([]map[string]any, 0, len(facts.Links))
	for _, link := range facts.Links {
		links = append(links, map[string]any{
			"cause_key":   link.CauseKey.Value,
			"cause":       link.Cause,
			"effect_key":  link.EffectKey.Value,
			"effect":      link.Effect,
			"explanation": link.Explanation,
			"confidence":  link.Confidence,
		})
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for kind, items := range byKind {
			shape := entityShapes[kind]
			query := fmt.Sprintf(`
				MATCH (p:Paper {external_id: $paper_id})
				UNWIND $items AS item
				MERGE (n:%s {label: item.key})
				ON CREATE SET n.name = item.name
				SET n.description = CASE
					WHEN item.description = '' THEN n.description
					ELSE item.description
				END
				MERGE (p)-[:%s]->(n)
			`, shape.label, shape.edge)
			if _, err := tx.Run(ctx, query, map[string]any{
				"paper_id": paperID,
				"items":    items,
			}); err != nil {
				return nil, err
			}
		}

		if len(links) > 0 {
			_, err := tx.Run(ctx, `
				UNWIND $links AS link
				MERGE (c:Concept {label: link.cause_key})
				ON CREATE SET c.name = link.cause
				MERGE (e:Concept {label: link.effect_key})
				ON CREATE SET e.name = link.effect
				MERGE (c)-[r:CAUSES {paper_id: $paper_id}]->(e)
				SET r.explanation = link.explanation,
				    r.confidence = link.confidence
			`, map[string]any{
				"paper_id": paperID,
				"links":    links,
			})
			if err != nil {
				return nil, err
			}
		}

		_, err := tx.Run(ctx, `
			MATCH (p:Paper {external_id: $paper_id})
			SET p.status = $status, p.failure_reason = null
		`, map[string]any{
			"paper_id": paperID,
			"status":   string(common.StatusSucceeded),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert facts of paper %s: %w", facts.PaperID, classifyWriteError(err))
	}
	return nil
}

// ListCausalLinks returns every CAUSES edge with its concept endpoints.
func (s *Store) ListCausalLinks(ctx context.Context) ([]common.CausalLink, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, `
		MATCH (c:Concept)-[r:CAUSES]->(e:Concept)
		RETURN c.label AS cause_key, c.name AS cause,
		       e.label AS effect_key, e.name AS effect,
		       r.explanation AS explanation, r.paper_id AS paper_id,
		       r.confidence AS confidence
	`, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list causal links: %w", err)
	}

	links := make([]common.CausalLink, 0, len(result.Records))
	for _, record := range result.Records {
		causeKey, _, _ := neo4j.GetRecordValue[string](record, "cause_key")
		cause, _, _ := neo4j.GetRecordValue[string](record, "cause")
		effectKey, _, _ := neo4j.GetRecordValue[string](record, "effect_key")
		effect, _, _ := neo4j.GetRecordValue[string](record, "effect")
		explanation, _, _ := neo4j.GetRecordValue[string](record, "explanation")
		paperID, _, _ := neo4j.GetRecordValue[string](record, "paper_id")
		confidence, _, _ := neo4j.GetRecordValue[float64](record, "confidence")

		links = append(links, common.CausalLink{
			CauseKey:    common.Key{Kind: common.KindConcept, Value: causeKey},
			EffectKey:   common.Key{Kind: common.KindConcept, Value: effectKey},
			Cause:       cause,
			Effect:      effect,
			Explanation: explanation,
			PaperID:     paperID,
			Confidence:  confidence,
		})
	}
	return links, nil
}

// ReplaceDerived swaps the persisted derived views for the given computed
// set in one transaction. Derived nodes are recomputed wholesale, never
// merged, so the stored set always matches the current edge set exactly.
func (s *Store) ReplaceDerived(ctx context.Context, chains []common.CausalChain, groups []common.SharedEffectGroup) error {
	chainParams := make([]map[string]any, 0, len(chains))
	for _, chain := range chains {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate chain id: %w", err)
		}
		chainParams = append(chainParams, map[string]any{
			"id":                  id,
			"initial_cause":       chain.InitialCause,
			"intermediate_effect": chain.IntermediateEffect,
			"final_effect":        chain.FinalEffect,
			"explanation_step1":   chain.ExplanationStep1,
			"explanation_step2":   chain.ExplanationStep2,
		})
	}

	groupParams := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate group id: %w", err)
		}
		causes := make([]string, 0, len(group.Causes))
		explanations := make([]string, 0, len(group.Causes))
		for _, cause := range group.Causes {
			causes = append(causes, cause.Cause)
			explanations = append(explanations, cause.Explanation)
		}
		groupParams = append(groupParams, map[string]any{
			"id":            id,
			"shared_effect": group.Effect,
			"causes":        causes,
			"explanations":  explanations,
		})
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, "MATCH (n:CausalChain) DETACH DELETE n", nil); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, "MATCH (n:SharedEffectGroup) DETACH DELETE n", nil); err != nil {
			return nil, err
		}
		if len(chainParams) > 0 {
			_, err := tx.Run(ctx, `
				UNWIND $chains AS chain
				CREATE (n:CausalChain)
				SET n = chain
			`, map[string]any{"chains": chainParams})
			if err != nil {
				return nil, err
			}
		}
		if len(groupParams) > 0 {
			_, err := tx.Run(ctx, `
				UNWIND $groups AS grp
				CREATE (n:SharedEffectGroup)
				SET n = grp
			`, map[string]any{"groups": groupParams})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace derived records: %w", err)
	}
	return nil
}
