package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/adamsih300u/bastion/core"
)

// MockExtractor is a test double for ai.DocumentExtractor.
// By default it produces a small deterministic set of chunks for any
// document; Delay simulates extraction latency for concurrency tests.
type MockExtractor struct {
	// ExtractFunc is called by ExtractDocument if set.
	ExtractFunc func(ctx context.Context, filePath string, docType core.DocType, documentID string) (*core.ProcessingResult, error)

	// Delay is slept before returning the default result. The sleep is
	// context-aware so canceled extractions return early.
	Delay time.Duration

	// ChunksPerDocument controls how many chunks the default result
	// contains. Default: 3.
	ChunksPerDocument int

	callCount  atomic.Int64
	concurrent atomic.Int64
	maxSeen    atomic.Int64
}

// NewMockExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// ExtractDocument returns deterministic chunks for the document, or
// delegates to ExtractFunc when injected. It tracks the peak number of
// concurrent calls so tests can assert concurrency bounds.
func (m *MockExtractor) ExtractDocument(ctx context.Context, filePath string, docType core.DocType, documentID string) (*core.ProcessingResult, error) {
	m.callCount.Add(1)
	cur := m.concurrent.Add(1)
	defer m.concurrent.Add(-1)
	for {
		max := m.maxSeen.Load()
		if cur <= max || m.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, filePath, docType, documentID)
	}

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	count := m.ChunksPerDocument
	if count <= 0 {
		count = 3
	}

	start := time.Now()
	chunks := make([]*core.Chunk, count)
	for i := range chunks {
		content := fmt.Sprintf("chunk %d of document %s", i, documentID)
		chunks[i] = &core.Chunk{
			ID:           core.IDFromContent(documentID + content),
			DocumentID:   documentID,
			Content:      content,
			Index:        i,
			QualityScore: 0.8,
			Method:       "mock",
		}
	}

	return &core.ProcessingResult{
		DocumentID: documentID,
		Chunks:     chunks,
		Entities: []*core.Entity{
			{Name: "Bastion", Type: "software", Confidence: 0.9, SourceChunkID: chunks[0].ID},
		},
		Quality: core.QualityMetrics{
			ChunkCount:  count,
			EntityCount: 1,
			MeanScore:   0.8,
			MinScore:    0.8,
			MaxScore:    0.8,
		},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// CallCount returns the number of extraction calls made.
func (m *MockExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// MaxConcurrent returns the peak number of concurrent extraction calls.
func (m *MockExtractor) MaxConcurrent() int {
	return int(m.maxSeen.Load())
}

// Reset clears counters and injected behavior.
func (m *MockExtractor) Reset() {
	m.callCount.Store(0)
	m.concurrent.Store(0)
	m.maxSeen.Store(0)
	m.ExtractFunc = nil
}
