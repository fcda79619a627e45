package extract

import (
	"strings"
	"testing"

	"github.com/adamsih300u/bastion/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreChunk_Range(t *testing.T) {
	prose := strings.Repeat("a well formed sentence about interesting topics ", 30)
	noise := strings.Repeat("0x3f9 || ## 42%% ", 30)

	proseScore := scoreChunk(prose, 400)
	noiseScore := scoreChunk(noise, 400)

	assert.Greater(t, proseScore, noiseScore, "prose should outscore symbol soup")
	assert.GreaterOrEqual(t, proseScore, 0.0)
	assert.LessOrEqual(t, proseScore, 1.0)
	assert.Equal(t, 0.0, scoreChunk("", 400))
}

func TestScoreChunk_TinyFragmentPenalized(t *testing.T) {
	small := scoreChunk("ok", 400)
	full := scoreChunk(strings.Repeat("plenty of well sized text here ", 45), 400)
	assert.Greater(t, full, small)
}

func TestDetectEntities(t *testing.T) {
	chunks := []*core.Chunk{
		{ID: 1, DocumentID: "d", Content: "The report covers Acme Corporation and its offices in New York."},
		{ID: 2, DocumentID: "d", Content: "Revenue at Acme Corporation grew this quarter."},
	}

	entities := detectEntities(chunks)
	require.NotEmpty(t, entities)

	byName := make(map[string]*core.Entity)
	for _, e := range entities {
		byName[e.Name] = e
	}

	acme, ok := byName["Acme Corporation"]
	require.True(t, ok, "expected Acme Corporation to be detected")
	ny, ok := byName["New York"]
	require.True(t, ok, "expected New York to be detected")

	// Acme appears in two chunks, New York in one.
	assert.Greater(t, acme.Confidence, ny.Confidence)
	assert.Equal(t, core.ID(1), acme.SourceChunkID)
}

func TestAggregateQuality(t *testing.T) {
	chunks := []*core.Chunk{
		{QualityScore: 0.2},
		{QualityScore: 0.8},
		{QualityScore: 0.5},
	}
	m := aggregateQuality(chunks, nil, 900)
	assert.Equal(t, 3, m.ChunkCount)
	assert.Equal(t, 900, m.TotalChars)
	assert.InDelta(t, 0.5, m.MeanScore, 1e-9)
	assert.Equal(t, 0.2, m.MinScore)
	assert.Equal(t, 0.8, m.MaxScore)

	empty := aggregateQuality(nil, nil, 0)
	assert.Zero(t, empty.ChunkCount)
	assert.Zero(t, empty.MeanScore)
}
