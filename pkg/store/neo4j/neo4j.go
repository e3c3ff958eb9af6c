// Package neo4j implements store.GraphStorage on the official Neo4j Go
// driver. Every write is a Cypher MERGE on the node or edge identity key,
// which is what makes repeated runs converge on one graph state.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/sciweave/papergraph/pkg/fact"
	"github.com/sciweave/papergraph/pkg/logger"
	"github.com/sciweave/papergraph/pkg/store"
)

var _ store.GraphStorage = (*Store)(nil)

// classifyWriteError wraps uniqueness violations in store.ConflictError so
// callers can tell a data-integrity conflict from a transient store
// failure. The Neo.ClientError.Schema.ConstraintValidationFailed status
// code is stable across server versions and is carried in the error text.
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "ConstraintValidationFailed") {
		return &store.ConflictError{Err: err}
	}
	return err
}

// Params holds the connection configuration for NewStore.
type Params struct {
	URI      string
	Username string
	Password string
}

// Store is the Neo4j-backed graph store.
type Store struct {
	driver     neo4j.Driver
	normalizer *fact.Normalizer
}

// NewStore connects to Neo4j and verifies connectivity.
func NewStore(ctx context.Context, params Params, normalizer *fact.Normalizer) (*Store, error) {
	driver, err := neo4j.NewDriver(params.URI, neo4j.BasicAuth(params.Username, params.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver for %s: %w", params.URI, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		if closeErr := driver.Close(ctx); closeErr != nil {
			logger.Warn("failed to close driver after connectivity check", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to verify neo4j connectivity at %s: %w", params.URI, err)
	}

	logger.Info("connected to neo4j", "uri", params.URI, "user", params.Username)
	return &Store{driver: driver, normalizer: normalizer}, nil
}

// constraintQueries back merge-by-key with store-level uniqueness. All are
// idempotent.
var constraintQueries = []string{
	"CREATE CONSTRAINT paper_external_id IF NOT EXISTS FOR (p:Paper) REQUIRE p.external_id IS UNIQUE",
	"CREATE CONSTRAINT author_name IF NOT EXISTS FOR (a:Author) REQUIRE a.name IS UNIQUE",
	"CREATE CONSTRAINT category_code IF NOT EXISTS FOR (c:Category) REQUIRE c.code IS UNIQUE",
	"CREATE CONSTRAINT equation_label IF NOT EXISTS FOR (e:Equation) REQUIRE e.label IS UNIQUE",
	"CREATE CONSTRAINT methodology_label IF NOT EXISTS FOR (m:Methodology) REQUIRE m.label IS UNIQUE",
	"CREATE CONSTRAINT technology_label IF NOT EXISTS FOR (t:Technology) REQUIRE t.label IS UNIQUE",
	"CREATE CONSTRAINT concept_label IF NOT EXISTS FOR (c:Concept) REQUIRE c.label IS UNIQUE",
}

// EnsureSchema creates the uniqueness constraints. Safe to call on every
// startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, query := range constraintQueries {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, query, nil)
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

// Reset drops every node and edge. Development use only.
func (s *Store) Reset(ctx context.Context) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver,
		"MATCH (n) DETACH DELETE n",
		nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(""),
	)
	if err != nil {
		return fmt.Errorf("failed to reset graph: %w", err)
	}
	logger.Warn("graph reset: all nodes and edges deleted")
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
