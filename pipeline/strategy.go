package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/adamsih300u/bastion/ai"
	"github.com/adamsih300u/bastion/core"
)

// ExtractStrategy selects how a document's extraction runs. Strategies
// are resolved once at pipeline construction; per-document dispatch
// only chooses which already-constructed pool to use.
type ExtractStrategy interface {
	// Name returns the configuration name of the strategy.
	Name() string
	// Extract runs extraction for one job and returns its result.
	Extract(ctx context.Context, job *core.ProcessingJob) (*core.ProcessingResult, error)
}

// newStrategy builds the configured strategy. sharedPool serves
// thread-pool offloads; isolatedPool serves process-pool offloads and
// carries panic isolation.
func newStrategy(name string, extractor ai.DocumentExtractor, sharedPool, isolatedPool *ants.Pool, config *Config, logger *slog.Logger) (ExtractStrategy, error) {
	switch name {
	case StrategyAsyncConcurrent:
		return &asyncStrategy{
			extractor: extractor,
			batchSize: config.PostProcessBatchSize,
		}, nil
	case StrategyThreadPool:
		return &poolStrategy{
			name:      StrategyThreadPool,
			extractor: extractor,
			pool:      sharedPool,
		}, nil
	case StrategyProcessPool:
		return &poolStrategy{
			name:      StrategyProcessPool,
			extractor: extractor,
			pool:      isolatedPool,
			isolate:   true,
		}, nil
	case StrategyHybrid:
		return &hybridStrategy{
			extractor:     extractor,
			pool:          sharedPool,
			batchSize:     config.PostProcessBatchSize,
			sizeThreshold: config.HybridSizeThreshold,
			logger:        logger,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// asyncStrategy runs extraction inline on the calling worker, then
// fans chunk post-processing out in fixed-size batches.
type asyncStrategy struct {
	extractor ai.DocumentExtractor
	batchSize int
}

func (s *asyncStrategy) Name() string { return StrategyAsyncConcurrent }

func (s *asyncStrategy) Extract(ctx context.Context, job *core.ProcessingJob) (*core.ProcessingResult, error) {
	result, err := s.extractor.ExtractDocument(ctx, job.FilePath, job.DocType, job.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := postProcessChunks(ctx, result.Chunks, s.batchSize); err != nil {
		return nil, err
	}
	return result, nil
}

// poolStrategy offloads the blocking extractor call to a bounded
// worker pool. With isolate set, a panic inside the extractor is
// contained and surfaced as an external error instead of crashing the
// process, the closest in-process equivalent of running extraction in
// a separate OS process.
type poolStrategy struct {
	name      string
	extractor ai.DocumentExtractor
	pool      *ants.Pool
	isolate   bool
}

func (s *poolStrategy) Name() string { return s.name }

func (s *poolStrategy) Extract(ctx context.Context, job *core.ProcessingJob) (*core.ProcessingResult, error) {
	type outcome struct {
		result *core.ProcessingResult
		err    error
	}
	done := make(chan outcome, 1)

	err := s.pool.Submit(func() {
		var out outcome
		if s.isolate {
			defer func() {
				if r := recover(); r != nil {
					out = outcome{err: core.NewExternalError("extract",
						fmt.Errorf("extractor panicked: %v", r))}
				}
				done <- out
			}()
			out.result, out.err = s.extractor.ExtractDocument(ctx, job.FilePath, job.DocType, job.DocumentID)
			return
		}
		out.result, out.err = s.extractor.ExtractDocument(ctx, job.FilePath, job.DocType, job.DocumentID)
		done <- out
	})
	if err != nil {
		return nil, core.NewTransientError("extract", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.result, out.err
	}
}

// hybridStrategy offloads heavyweight formats (PDF, DOCX, EPUB) to the
// pool and runs lightweight formats inline, post-processing chunks in
// parallel above a size threshold.
type hybridStrategy struct {
	extractor     ai.DocumentExtractor
	pool          *ants.Pool
	batchSize     int
	sizeThreshold int
	logger        *slog.Logger
}

func (s *hybridStrategy) Name() string { return StrategyHybrid }

func (s *hybridStrategy) Extract(ctx context.Context, job *core.ProcessingJob) (*core.ProcessingResult, error) {
	var result *core.ProcessingResult
	var err error

	if job.DocType.IsHeavyweight() {
		offload := &poolStrategy{name: StrategyThreadPool, extractor: s.extractor, pool: s.pool}
		result, err = offload.Extract(ctx, job)
	} else {
		result, err = s.extractor.ExtractDocument(ctx, job.FilePath, job.DocType, job.DocumentID)
	}
	if err != nil {
		return nil, err
	}

	if len(result.Chunks) > s.sizeThreshold {
		if err := postProcessChunks(ctx, result.Chunks, s.batchSize); err != nil {
			return nil, err
		}
	} else {
		annotateChunks(result.Chunks)
	}
	return result, nil
}

// postProcessChunks annotates chunks in parallel, one goroutine per
// fixed-size batch.
func postProcessChunks(ctx context.Context, chunks []*core.Chunk, batchSize int) error {
	if len(chunks) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 32
	}

	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		g.Go(func() error {
			annotateChunks(batch)
			return nil
		})
	}
	return g.Wait()
}

// annotateChunks fills derived metadata consumed by the vector store
// payload builder.
func annotateChunks(chunks []*core.Chunk) {
	for _, chunk := range chunks {
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]string)
		}
		chunk.Metadata["char_count"] = strconv.Itoa(len(chunk.Content))
		chunk.Metadata["quality_score"] = strconv.FormatFloat(chunk.QualityScore, 'f', 3, 64)
	}
}
