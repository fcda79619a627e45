package vectorstore

import (
	"context"
	"errors"

	"github.com/adamsih300u/bastion/core"
)

var (
	// ErrStoreClosed indicates that the vector store is closed.
	ErrStoreClosed = errors.New("vector store is closed")

	// ErrDimensionMismatch indicates a vector with the wrong dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Point is one embedded chunk ready for persistence. The ID is derived
// from document ID and chunk content, so re-ingesting the same document
// overwrites rather than duplicates.
type Point struct {
	ID      core.ID
	Vector  []float32
	Payload map[string]string
}

// Store persists embedding points into a named collection.
// Implementations must be thread-safe; the storage worker pool calls
// Upsert from multiple goroutines.
type Store interface {
	// Upsert writes points into the collection, replacing points with
	// the same ID. Partial failure leaves already-written points in
	// place; callers decide whether to retry the whole batch.
	Upsert(ctx context.Context, collection string, points []*Point) error

	// DeleteByDocument removes every point whose payload names the
	// given document ID.
	DeleteByDocument(ctx context.Context, collection string, documentID string) error

	// Close releases the underlying connections.
	Close() error
}
