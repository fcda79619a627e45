package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamsih300u/bastion/ai/mock"
	"github.com/adamsih300u/bastion/core"
)

func newStrategyFixture(t *testing.T, name string, extractor *mock.MockExtractor) ExtractStrategy {
	t.Helper()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	isolated, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Release()
		isolated.Release()
	})

	cfg := DefaultConfig()
	strategy, err := newStrategy(name, extractor, pool, isolated, cfg, slog.Default())
	require.NoError(t, err)
	return strategy
}

func strategyJob(docType core.DocType) *core.ProcessingJob {
	return &core.ProcessingJob{
		DocumentID:  "doc-1",
		FilePath:    "/uploads/doc-1." + string(docType),
		DocType:     docType,
		UserID:      "user-1",
		SubmittedAt: time.Now().UTC(),
	}
}

func TestNewStrategy_Unknown(t *testing.T) {
	_, err := newStrategy("fancy", mock.NewMockExtractor(), nil, nil, DefaultConfig(), slog.Default())
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestStrategies_ExtractAndAnnotate(t *testing.T) {
	for _, name := range []string{
		StrategyAsyncConcurrent,
		StrategyThreadPool,
		StrategyProcessPool,
		StrategyHybrid,
	} {
		t.Run(name, func(t *testing.T) {
			extractor := mock.NewMockExtractor()
			extractor.ChunksPerDocument = 5

			strategy := newStrategyFixture(t, name, extractor)
			assert.Equal(t, name, strategy.Name())

			result, err := strategy.Extract(context.Background(), strategyJob(core.DocTypeText))
			require.NoError(t, err)
			require.Len(t, result.Chunks, 5)
			assert.Equal(t, 1, extractor.CallCount())
		})
	}
}

func TestAsyncStrategy_AnnotatesChunks(t *testing.T) {
	extractor := mock.NewMockExtractor()
	extractor.ChunksPerDocument = 40

	strategy := newStrategyFixture(t, StrategyAsyncConcurrent, extractor)
	result, err := strategy.Extract(context.Background(), strategyJob(core.DocTypeText))
	require.NoError(t, err)

	for _, chunk := range result.Chunks {
		require.NotNil(t, chunk.Metadata)
		assert.NotEmpty(t, chunk.Metadata["char_count"])
		assert.NotEmpty(t, chunk.Metadata["quality_score"])
	}
}

func TestHybridStrategy_AnnotatesRegardlessOfSize(t *testing.T) {
	for _, count := range []int{3, 50} { // below and above the parallel threshold
		extractor := mock.NewMockExtractor()
		extractor.ChunksPerDocument = count

		strategy := newStrategyFixture(t, StrategyHybrid, extractor)
		result, err := strategy.Extract(context.Background(), strategyJob(core.DocTypePDF))
		require.NoError(t, err)
		require.Len(t, result.Chunks, count)
		for _, chunk := range result.Chunks {
			assert.NotEmpty(t, chunk.Metadata["char_count"])
		}
	}
}

func TestProcessPoolStrategy_IsolatesPanic(t *testing.T) {
	extractor := mock.NewMockExtractor()
	extractor.ExtractFunc = func(ctx context.Context, filePath string, docType core.DocType, documentID string) (*core.ProcessingResult, error) {
		panic("segfault in parser")
	}

	strategy := newStrategyFixture(t, StrategyProcessPool, extractor)
	_, err := strategy.Extract(context.Background(), strategyJob(core.DocTypePDF))
	require.Error(t, err)

	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.KindExternal, perr.Kind)
	assert.Contains(t, err.Error(), "panicked")
}

func TestThreadPoolStrategy_ContextCancel(t *testing.T) {
	extractor := mock.NewMockExtractor()
	extractor.Delay = time.Second

	strategy := newStrategyFixture(t, StrategyThreadPool, extractor)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := strategy.Extract(ctx, strategyJob(core.DocTypePDF))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "cancellation must not wait for the extractor")
}

func TestPostProcessChunks_AllAnnotated(t *testing.T) {
	chunks := make([]*core.Chunk, 101)
	for i := range chunks {
		chunks[i] = &core.Chunk{ID: core.ID(i + 1), Content: "some text", QualityScore: 0.5}
	}
	require.NoError(t, postProcessChunks(context.Background(), chunks, 32))
	for _, chunk := range chunks {
		assert.Equal(t, "9", chunk.Metadata["char_count"])
	}
}
