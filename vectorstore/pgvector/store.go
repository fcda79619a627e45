// Copyright 2025 The Bastion Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pgvector

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/vectorstore"
)

// Config holds connection and schema settings for the pgvector store.
type Config struct {
	// ConnString is the PostgreSQL connection string.
	ConnString string
	// VectorDim is the dimensionality of stored embeddings.
	VectorDim int
	// IndexLists is the ivfflat list count for the vector index.
	IndexLists int
}

// DefaultConfig returns a Config with sensible defaults. ConnString
// must still be provided by the caller.
func DefaultConfig() *Config {
	return &Config{
		VectorDim:  384,
		IndexLists: 100,
	}
}

// Store implements vectorstore.Store on PostgreSQL with the pgvector
// extension. Point IDs are persisted as fixed-width hex strings because
// PostgreSQL has no unsigned 64-bit integer type.
type Store struct {
	pool   *pgxpool.Pool
	config *Config
	logger *slog.Logger

	mu          sync.Mutex
	initialized map[string]bool
}

var _ vectorstore.Store = (*Store)(nil)

// NewStore connects to PostgreSQL and enables the vector extension.
func NewStore(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.VectorDim <= 0 {
		config.VectorDim = 384
	}
	if config.IndexLists <= 0 {
		config.IndexLists = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		pool:        pool,
		config:      config,
		logger:      slog.Default().With("component", "pgvector"),
		initialized: make(map[string]bool),
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}

	return s, nil
}

// collectionReady reports whether the collection's schema has already
// been created by this Store instance.
func (s *Store) collectionReady(collection string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized[collection]
}

func (s *Store) markCollectionReady(collection string) {
	s.mu.Lock()
	s.initialized[collection] = true
	s.mu.Unlock()
}

// ensureCollection creates the collection table and its vector index
// on first use. Concurrent first-touch of the same collection may run
// the DDL more than once, but every statement uses IF NOT EXISTS so
// the duplicate work is harmless.
func (s *Store) ensureCollection(ctx context.Context, collection string) error {
	if s.collectionReady(collection) {
		return nil
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT,
			chunk_index INTEGER,
			embedding vector(%d),
			payload JSONB
		)`, pgIdentifier(collection), s.config.VectorDim)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = %d)`,
		pgIdentifier(collection), pgIdentifier(collection), s.config.IndexLists)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	createDocIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_document_idx
		ON %s (document_id)`,
		pgIdentifier(collection), pgIdentifier(collection))
	if _, err := s.pool.Exec(ctx, createDocIndex); err != nil {
		return fmt.Errorf("failed to create document index: %w", err)
	}

	s.markCollectionReady(collection)
	return nil
}

// Upsert writes points in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, points []*vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	for _, point := range points {
		if len(point.Vector) != s.config.VectorDim {
			return fmt.Errorf("%w: got %d, want %d",
				vectorstore.ErrDimensionMismatch, len(point.Vector), s.config.VectorDim)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, content, chunk_index, embedding, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			chunk_index = EXCLUDED.chunk_index,
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload`,
		pgIdentifier(collection))

	for _, point := range points {
		chunkIndex := 0
		if v, ok := point.Payload["chunk_index"]; ok {
			chunkIndex, _ = strconv.Atoi(v)
		}
		_, err := tx.Exec(ctx, stmt,
			pointKey(point.ID),
			point.Payload["document_id"],
			point.Payload["content"],
			chunkIndex,
			pgvector.NewVector(point.Vector),
			point.Payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("upserted points", "collection", collection, "count", len(points))
	return nil
}

// DeleteByDocument removes every point belonging to a document.
func (s *Store) DeleteByDocument(ctx context.Context, collection string, documentID string) error {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", pgIdentifier(collection))
	tag, err := s.pool.Exec(ctx, stmt, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	s.logger.Debug("deleted points", "collection", collection,
		"document_id", documentID, "count", tag.RowsAffected())
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// pointKey renders an ID as a fixed-width hex string so lexicographic
// and numeric order agree.
func pointKey(id core.ID) string {
	return fmt.Sprintf("%016x", uint64(id))
}

// pgIdentifier quotes a collection name for use as a SQL identifier.
func pgIdentifier(name string) string {
	return `"` + name + `"`
}
