package mock

import (
	"context"
	"sync"

	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/vectorstore"
)

// MockStore provides a configurable in-memory vectorstore.Store for testing.
type MockStore struct {
	// UpsertFunc overrides Upsert behavior when set.
	UpsertFunc func(ctx context.Context, collection string, points []*vectorstore.Point) error

	mu     sync.Mutex
	points map[string]map[core.ID]*vectorstore.Point
	closed bool
}

var _ vectorstore.Store = (*MockStore)(nil)

// NewMockStore creates a mock vector store.
func NewMockStore() *MockStore {
	return &MockStore{
		points: make(map[string]map[core.ID]*vectorstore.Point),
	}
}

// Upsert stores points in memory, replacing points with the same ID.
func (m *MockStore) Upsert(ctx context.Context, collection string, points []*vectorstore.Point) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, collection, points)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return vectorstore.ErrStoreClosed
	}
	coll := m.points[collection]
	if coll == nil {
		coll = make(map[core.ID]*vectorstore.Point)
		m.points[collection] = coll
	}
	for _, point := range points {
		coll[point.ID] = point
	}
	return nil
}

// DeleteByDocument removes points whose payload names the document.
func (m *MockStore) DeleteByDocument(ctx context.Context, collection string, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return vectorstore.ErrStoreClosed
	}
	for id, point := range m.points[collection] {
		if point.Payload["document_id"] == documentID {
			delete(m.points[collection], id)
		}
	}
	return nil
}

// Close marks the store closed; further writes fail.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Count returns the number of points stored in a collection.
func (m *MockStore) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points[collection])
}

// PointsForDocument returns the stored points for one document.
func (m *MockStore) PointsForDocument(collection, documentID string) []*vectorstore.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*vectorstore.Point
	for _, point := range m.points[collection] {
		if point.Payload["document_id"] == documentID {
			out = append(out, point)
		}
	}
	return out
}
