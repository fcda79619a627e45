package pipeline

import (
	"github.com/adamsih300u/bastion/core"
)

// BatchOptimizer groups chunks into embedding batches bounded by an
// estimated token ceiling and an item count cap. Batches are emitted
// in chunk order, and the greedy accumulation keeps the batch count
// minimal subject to both ceilings.
type BatchOptimizer struct {
	maxTokens     int
	maxItems      int
	charsPerToken int
}

// NewBatchOptimizer creates a batch optimizer with the given ceilings.
func NewBatchOptimizer(maxTokens, maxItems, charsPerToken int) *BatchOptimizer {
	if maxTokens <= 0 {
		maxTokens = 7000
	}
	if maxItems <= 0 {
		maxItems = 64
	}
	if charsPerToken <= 0 {
		charsPerToken = 3
	}
	return &BatchOptimizer{
		maxTokens:     maxTokens,
		maxItems:      maxItems,
		charsPerToken: charsPerToken,
	}
}

// EstimateTokens estimates the token count of a text from its length.
func (b *BatchOptimizer) EstimateTokens(text string) int {
	return (len(text) + b.charsPerToken - 1) / b.charsPerToken
}

// Split partitions chunks into ordered batches. A single chunk larger
// than the token ceiling forms its own batch; the embedding provider
// decides whether to reject it.
func (b *BatchOptimizer) Split(chunks []*core.Chunk) [][]*core.Chunk {
	if len(chunks) == 0 {
		return nil
	}

	var batches [][]*core.Chunk
	var current []*core.Chunk
	tokens := 0

	for _, chunk := range chunks {
		chunkTokens := b.EstimateTokens(chunk.Content)

		if len(current) > 0 && (tokens+chunkTokens > b.maxTokens || len(current) >= b.maxItems) {
			batches = append(batches, current)
			current = nil
			tokens = 0
		}

		current = append(current, chunk)
		tokens += chunkTokens
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
