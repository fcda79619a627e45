package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/adamsih300u/bastion/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChunks(count, contentLen int) []*core.Chunk {
	chunks := make([]*core.Chunk, count)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ID:         core.ID(i + 1),
			DocumentID: "doc-1",
			Content:    strings.Repeat("x", contentLen),
			Index:      i,
		}
	}
	return chunks
}

func TestBatchOptimizer_Empty(t *testing.T) {
	b := NewBatchOptimizer(7000, 64, 3)
	assert.Nil(t, b.Split(nil))
	assert.Nil(t, b.Split([]*core.Chunk{}))
}

func TestBatchOptimizer_SingleBatch(t *testing.T) {
	b := NewBatchOptimizer(7000, 64, 3)
	batches := b.Split(makeChunks(5, 30))
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 5)
}

func TestBatchOptimizer_TokenCeiling(t *testing.T) {
	b := NewBatchOptimizer(7000, 64, 3)

	// 1000 chunks of ~3000 chars: ~1000 tokens each, 7 per batch.
	chunks := makeChunks(1000, 3000)
	batches := b.Split(chunks)

	total := 0
	for _, batch := range batches {
		tokens := 0
		for _, chunk := range batch {
			tokens += b.EstimateTokens(chunk.Content)
		}
		assert.LessOrEqual(t, tokens, 7000, "batch token sum must respect the ceiling")
		total += len(batch)
	}
	assert.Equal(t, 1000, total, "no chunk may be dropped")
}

func TestBatchOptimizer_ItemCap(t *testing.T) {
	b := NewBatchOptimizer(1_000_000, 10, 3)
	batches := b.Split(makeChunks(25, 10))

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 10)
	assert.Len(t, batches[1], 10)
	assert.Len(t, batches[2], 5)
}

func TestBatchOptimizer_PreservesOrder(t *testing.T) {
	b := NewBatchOptimizer(100, 64, 3)
	chunks := make([]*core.Chunk, 20)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ID:      core.ID(i + 1),
			Content: fmt.Sprintf("chunk number %02d with some padding text", i),
			Index:   i,
		}
	}

	batches := b.Split(chunks)
	index := 0
	for _, batch := range batches {
		for _, chunk := range batch {
			assert.Equal(t, index, chunk.Index, "batches must preserve chunk order")
			index++
		}
	}
	assert.Equal(t, 20, index)
}

func TestBatchOptimizer_OversizedChunkGetsOwnBatch(t *testing.T) {
	b := NewBatchOptimizer(100, 64, 3)
	chunks := []*core.Chunk{
		{ID: 1, Content: strings.Repeat("a", 30)},
		{ID: 2, Content: strings.Repeat("b", 1000)}, // exceeds the ceiling alone
		{ID: 3, Content: strings.Repeat("c", 30)},
	}

	batches := b.Split(chunks)
	require.Len(t, batches, 3)
	assert.Equal(t, core.ID(1), batches[0][0].ID)
	assert.Equal(t, core.ID(2), batches[1][0].ID)
	assert.Equal(t, core.ID(3), batches[2][0].ID)
}

func TestBatchOptimizer_MinimalBatchCount(t *testing.T) {
	b := NewBatchOptimizer(90, 64, 3)
	// Each chunk is 30 tokens; exactly 3 fit per batch.
	batches := b.Split(makeChunks(9, 90))
	assert.Len(t, batches, 3)
}

func TestEstimateTokens(t *testing.T) {
	b := NewBatchOptimizer(7000, 64, 3)
	assert.Equal(t, 0, b.EstimateTokens(""))
	assert.Equal(t, 1, b.EstimateTokens("ab"))
	assert.Equal(t, 1, b.EstimateTokens("abc"))
	assert.Equal(t, 2, b.EstimateTokens("abcd"))
	assert.Equal(t, 1000, b.EstimateTokens(strings.Repeat("x", 3000)))
}
