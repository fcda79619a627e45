package storage

import (
	"context"

	"github.com/adamsih300u/bastion/core"
)

// DocumentRepository provides persistence for document records.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// PutDocument stores a document record, overwriting any existing
	// record with the same ID. Sets UpdatedAt automatically.
	PutDocument(ctx context.Context, record *core.DocumentRecord) error

	// GetDocument retrieves a document record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.DocumentRecord, error)

	// UpdateStatus transitions a document record to a new status,
	// recording errMsg when the status is a failure. Updates the
	// UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateStatus(ctx context.Context, id string, status core.JobStatus, errMsg string) error

	// UpdateQualityMetrics stores extraction quality metrics on an
	// existing document record.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateQualityMetrics(ctx context.Context, id string, quality core.QualityMetrics) error

	// GetDocumentsByStatus retrieves all document records currently in
	// the given status, in no particular order.
	GetDocumentsByStatus(ctx context.Context, status core.JobStatus) ([]*core.DocumentRecord, error)

	// DeleteDocument removes a document record and its indices.
	// Returns ErrNotFound if the record doesn't exist.
	DeleteDocument(ctx context.Context, id string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
