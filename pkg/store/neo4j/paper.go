package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/sciweave/papergraph/pkg/common"
	"github.com/sciweave/papergraph/pkg/fact"
)

// EnsurePaper merges the Paper node with its metadata and connects authors
// and categories. The first category listed on the record is marked as the
// paper's primary category. Status is set to pending only on first creation
// so re-runs do not regress a terminal status.
func (s *Store) EnsurePaper(ctx context.Context, paper common.PaperRecord) error {
	paperKey := fact.PaperKey(paper.ExternalID)

	authors := make([]map[string]any, 0, len(paper.Authors))
	for _, name := range paper.Authors {
		key, ok := s.normalizer.AuthorKey(name)
		if !ok {
			continue
		}
		authors = append(authors, map[string]any{
			"key":  key.Value,
			"name": name,
		})
	}

	categories := make([]map[string]any, 0, len(paper.Categories))
	for i, code := range paper.Categories {
		key, ok := fact.CategoryKey(code)
		if !ok {
			continue
		}
		categories = append(categories, map[string]any{
			"key":     key.Value,
			"code":    code,
			"primary": i == 0,
		})
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (p:Paper {external_id: $external_id})
			ON CREATE SET p.status = $pending
			SET p.title = $title,
			    p.abstract = $abstract,
			    p.published = $published,
			    p.updated = $updated,
			    p.doi = $doi,
			    p.journal_ref = $journal_ref
		`, map[string]any{
			"external_id": paperKey.Value,
			"pending":     string(common.StatusPending),
			"title":       paper.Title,
			"abstract":    paper.Abstract,
			"published":   paper.Published,
			"updated":     paper.Updated,
			"doi":         paper.DOI,
			"journal_ref": paper.JournalRef,
		})
		if err != nil {
			return nil, err
		}

		if len(authors) > 0 {
			_, err = tx.Run(ctx, `
				MATCH (p:Paper {external_id: $external_id})
				UNWIND $authors AS author
				MERGE (a:Author {name: author.key})
				ON CREATE SET a.display_name = author.name
				MERGE (a)-[:AUTHORED]->(p)
			`, map[string]any{
				"external_id": paperKey.Value,
				"authors":     authors,
			})
			if err != nil {
				return nil, err
			}
		}

		if len(categories) > 0 {
			_, err = tx.Run(ctx, `
				MATCH (p:Paper {external_id: $external_id})
				UNWIND $categories AS category
				MERGE (c:Category {code: category.key})
				ON CREATE SET c.display_code = category.code
				MERGE (p)-[r:HAS_CATEGORY]->(c)
				SET r.primary = category.primary
			`, map[string]any{
				"external_id": paperKey.Value,
				"categories":  categories,
			})
			if err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to ensure paper %s: %w", paper.ExternalID, classifyWriteError(err))
	}
	return nil
}

// SetPaperStatus updates one paper's processing status. A non-empty reason
// is recorded as failure_reason; an empty reason clears it.
func (s *Store) SetPaperStatus(ctx context.Context, paperID string, status common.PaperStatus, reason common.FailureReason) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver, `
		MATCH (p:Paper {external_id: $external_id})
		SET p.status = $status,
		    p.failure_reason = CASE WHEN $reason = '' THEN null ELSE $reason END
	`, map[string]any{
		"external_id": fact.PaperKey(paperID).Value,
		"status":      string(status),
		"reason":      string(reason),
	},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(""),
	)
	if err != nil {
		return fmt.Errorf("failed to set status of paper %s: %w", paperID, err)
	}
	return nil
}
