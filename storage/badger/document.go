package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/storage"
)

// DocumentRepository implements storage.DocumentRepository on BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// PutDocument stores a document record, overwriting any existing record
// with the same ID.
func (r *DocumentRepository) PutDocument(ctx context.Context, record *core.DocumentRecord) error {
	if record.ID == "" {
		return core.ErrEmptyDocumentID
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(record.ID)

		// Remove the old status index entry if the record already exists
		// under a different status.
		old, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if old != nil && old.Status != record.Status {
			if err := tx.Delete(makeDocumentStatusKey(old.Status, old.ID)); err != nil {
				return err
			}
		}

		if record.SubmittedAt.IsZero() {
			record.SubmittedAt = time.Now().UTC()
		}
		record.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
		statusKey := makeDocumentStatusKey(record.Status, record.ID)
		if err := tx.Set(statusKey, []byte(record.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document record by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateStatus transitions a document record to a new status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status core.JobStatus, errMsg string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		record, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		if record.Status != status {
			if err := tx.Delete(makeDocumentStatusKey(record.Status, id)); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentStatusKey(status, id), []byte(id)); err != nil {
				return err
			}
		}

		record.Status = status
		record.Error = errMsg
		record.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateQualityMetrics stores extraction quality metrics on an existing record.
func (r *DocumentRepository) UpdateQualityMetrics(ctx context.Context, id string, quality core.QualityMetrics) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		record, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		record.Quality = quality
		record.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocumentsByStatus retrieves all document records in the given status.
func (r *DocumentRepository) GetDocumentsByStatus(ctx context.Context, status core.JobStatus) ([]*core.DocumentRecord, error) {
	var records []*core.DocumentRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentStatusKey(status)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id string
			err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			})
			if err != nil {
				return err
			}

			record, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			// Skip dangling index entries rather than failing the scan.
			if record == nil || record.Status != status {
				continue
			}
			records = append(records, record)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteDocument removes a document record and its status index entry.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		record, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(makeDocumentStatusKey(record.Status, id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument reads a document record by key within a transaction.
// Returns nil without error if the key doesn't exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.DocumentRecord, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.DocumentRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalDocumentRecord(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
