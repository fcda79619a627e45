// Copyright 2025 The Bastion Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/adamsih300u/bastion/ai"
	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/notify"
	"github.com/adamsih300u/bastion/storage"
	"github.com/adamsih300u/bastion/vectorstore"
)

// storeTask carries a resolved embedding job to the storage workers.
type storeTask struct {
	job     *core.EmbeddingJob
	vectors [][]float32
}

// QueueStats is a point-in-time snapshot of pipeline load.
type QueueStats struct {
	QueueSize      int
	ActiveJobs     int
	CompletedJobs  int
	FailedJobs     int
	WorkersRunning int
}

// Pipeline orchestrates document ingestion: extraction, embedding, and
// vector persistence, each with its own worker bank and bounded queue.
// Submit never blocks; workers pull work and the semaphores under them
// are the authoritative concurrency caps.
type Pipeline struct {
	config    *Config
	repo      storage.DocumentRepository
	extractor ai.DocumentExtractor
	embedder  ai.Embedder
	store     vectorstore.Store
	logger    *slog.Logger

	docQueue   chan *core.ProcessingJob
	embedQueue chan *core.EmbeddingJob
	storeQueue chan *storeTask

	docSem   *semaphore.Weighted
	embedSem *semaphore.Weighted
	storeSem *semaphore.Weighted

	documents *Tracker
	jobs      *Tracker

	strategy     ExtractStrategy
	batcher      *BatchOptimizer
	retry        *RetryPolicy
	extractPool  *ants.Pool
	isolatedPool *ants.Pool

	urlImporter func(ctx context.Context, record *core.DocumentRecord) error

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers atomic.Int64
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger. Default is slog.Default(). The
// pipeline's component attribute is attached either way.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// WithNotifier attaches a status notifier for document transitions.
func WithNotifier(notifier notify.Notifier) Option {
	return func(p *Pipeline) error {
		p.documents = NewTracker(notifier)
		return nil
	}
}

// WithURLImporter sets the callback recovery uses to re-trigger import
// of URL-sourced documents that have no local upload.
func WithURLImporter(importer func(ctx context.Context, record *core.DocumentRecord) error) Option {
	return func(p *Pipeline) error {
		p.urlImporter = importer
		return nil
	}
}

// New creates a pipeline and starts its worker banks. The caller owns
// the collaborators and must Close the pipeline before closing them.
func New(
	config *Config,
	repo storage.DocumentRepository,
	extractor ai.DocumentExtractor,
	embedder ai.Embedder,
	store vectorstore.Store,
	opts ...Option,
) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	extractPool, err := ants.NewPool(config.DocumentWorkers)
	if err != nil {
		return nil, err
	}
	isolatedPool, err := ants.NewPool(config.DocumentWorkers)
	if err != nil {
		extractPool.Release()
		return nil, err
	}

	p := &Pipeline{
		config:       config,
		repo:         repo,
		extractor:    extractor,
		embedder:     embedder,
		store:        store,
		logger:       slog.Default().With("component", "pipeline"),
		docQueue:     make(chan *core.ProcessingJob, config.DocumentQueueSize),
		embedQueue:   make(chan *core.EmbeddingJob, config.EmbeddingQueueSize),
		storeQueue:   make(chan *storeTask, config.EmbeddingQueueSize),
		docSem:       semaphore.NewWeighted(int64(config.DocumentWorkers)),
		embedSem:     semaphore.NewWeighted(int64(config.EmbeddingWorkers)),
		storeSem:     semaphore.NewWeighted(int64(config.StorageWorkers)),
		documents:    NewTracker(nil),
		jobs:         NewTracker(nil),
		extractPool:  extractPool,
		isolatedPool: isolatedPool,
		stopCh:       make(chan struct{}),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			extractPool.Release()
			isolatedPool.Release()
			return nil, optErr
		}
	}

	p.batcher = NewBatchOptimizer(config.MaxBatchTokens, config.MaxBatchItems, config.CharsPerToken)
	// MaxRetries counts retries after the first attempt.
	p.retry, err = NewRetryPolicy(config.MaxRetries+1,
		config.RateLimitFloor, config.RateLimitCap, config.TransientCap, p.logger)
	if err != nil {
		extractPool.Release()
		isolatedPool.Release()
		return nil, err
	}

	p.strategy, err = newStrategy(config.Strategy, extractor, extractPool, isolatedPool, config, p.logger)
	if err != nil {
		extractPool.Release()
		isolatedPool.Release()
		return nil, err
	}

	p.running.Store(true)
	p.startWorkers()

	p.logger.Info("pipeline started",
		"strategy", p.strategy.Name(),
		"document_workers", config.DocumentWorkers,
		"embedding_workers", config.EmbeddingWorkers,
		"storage_workers", config.StorageWorkers)

	return p, nil
}

func (p *Pipeline) startWorkers() {
	for i := 0; i < p.config.DocumentWorkers; i++ {
		p.wg.Add(1)
		go p.documentWorker()
	}
	for i := 0; i < p.config.EmbeddingWorkers; i++ {
		p.wg.Add(1)
		go p.embeddingWorker()
	}
	for i := 0; i < p.config.StorageWorkers; i++ {
		p.wg.Add(1)
		go p.storageWorker()
	}
}

// Submit enqueues a document for processing and returns immediately.
// Returns false when the pipeline is closed, the job is invalid, the
// document is already in flight, the record cannot be persisted, or
// the queue is full; it never blocks.
func (p *Pipeline) Submit(documentID, filePath string, docType core.DocType, userID string, priority int) bool {
	if !p.running.Load() {
		return false
	}

	job := &core.ProcessingJob{
		DocumentID:  documentID,
		FilePath:    filePath,
		DocType:     docType,
		Priority:    priority,
		UserID:      userID,
		SubmittedAt: time.Now().UTC(),
	}
	if err := core.ValidateProcessingJob(job); err != nil {
		p.logger.Warn("rejected invalid submission", "document_id", documentID, "error", err)
		return false
	}

	if !p.documents.Track(documentID) {
		p.logger.Warn("rejected duplicate submission, document already in flight",
			"document_id", documentID)
		return false
	}

	record := &core.DocumentRecord{
		ID:          documentID,
		FilePath:    filePath,
		DocType:     docType,
		UserID:      userID,
		Status:      core.StatusQueued,
		SubmittedAt: job.SubmittedAt,
	}
	if err := p.repo.PutDocument(context.Background(), record); err != nil {
		p.logger.Error("failed to persist document record", "document_id", documentID, "error", err)
		p.documents.Fail(documentID, err)
		return false
	}

	select {
	case p.docQueue <- job:
		return true
	default:
		p.documents.Fail(documentID, ErrQueueFull)
		p.persistStatus(documentID, core.StatusFailed, ErrQueueFull.Error())
		return false
	}
}

// SubmitChunks enqueues chunks for embedding and returns the job ID
// immediately. Fails only when the pipeline is closed, there are no
// chunks, or the queue cannot accept the job.
func (p *Pipeline) SubmitChunks(chunks []*core.Chunk, documentID string) (string, error) {
	if !p.running.Load() {
		return "", ErrPipelineClosed
	}
	if len(chunks) == 0 {
		return "", ErrNoChunks
	}

	job := &core.EmbeddingJob{
		JobID:       uuid.NewString(),
		DocumentID:  documentID,
		Chunks:      chunks,
		SubmittedAt: time.Now().UTC(),
	}

	p.jobs.Track(job.JobID)

	select {
	case p.embedQueue <- job:
		return job.JobID, nil
	default:
		p.jobs.Fail(job.JobID, ErrQueueFull)
		return "", ErrQueueFull
	}
}

// GetStatus returns the status of a submitted document.
func (p *Pipeline) GetStatus(documentID string) Status {
	return p.documents.Get(documentID)
}

// GetJobStatus returns the status of an embedding job.
func (p *Pipeline) GetJobStatus(jobID string) Status {
	return p.jobs.Get(jobID)
}

// GetQueueStats returns a snapshot of pipeline load.
func (p *Pipeline) GetQueueStats() QueueStats {
	active, completed, failed := p.documents.Counts()
	return QueueStats{
		QueueSize:      len(p.docQueue),
		ActiveJobs:     active,
		CompletedJobs:  completed,
		FailedJobs:     failed,
		WorkersRunning: int(p.workers.Load()),
	}
}

// WaitForDocumentCompletion polls until the document reaches a
// terminal state or the timeout elapses. Returns true only on
// completion. A timeout does not cancel in-flight work.
func (p *Pipeline) WaitForDocumentCompletion(documentID string, timeout time.Duration) bool {
	return p.documents.WaitFor(documentID, timeout, p.config.PollInterval)
}

// WaitForAllCompletion polls until every tracked document and
// embedding job is terminal or the timeout elapses.
func (p *Pipeline) WaitForAllCompletion(timeout time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if p.documents.ActiveCount() == 0 && p.jobs.ActiveCount() == 0 {
			return true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		time.Sleep(p.config.PollInterval)
	}
}

// Close shuts the pipeline down cooperatively. Workers honor their
// in-flight item to completion; queued but unstarted items remain
// persisted as queued and are picked up by recovery on restart. Pools
// are released only after all workers exit.
func (p *Pipeline) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	p.wg.Wait()
	p.extractPool.Release()
	p.isolatedPool.Release()
	p.logger.Info("pipeline stopped")
}

// documentWorker is the long-lived loop of one document worker.
func (p *Pipeline) documentWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case job := <-p.docQueue:
			p.workers.Add(1)
			p.processDocument(job)
			p.workers.Add(-1)
		}
	}
}

// processDocument runs one document through extract, embed hand-off,
// and completion. Failures at any stage mark the document failed and
// never propagate to sibling jobs.
func (p *Pipeline) processDocument(job *core.ProcessingJob) {
	ctx := context.Background()

	result, err := p.extract(ctx, job)
	if err != nil {
		p.failDocument(job.DocumentID, err)
		return
	}

	p.documents.SetStatus(job.DocumentID, core.StatusEmbedding)
	p.persistStatus(job.DocumentID, core.StatusEmbedding, "")

	summary := &core.JobSummary{DocumentID: job.DocumentID}
	if len(result.Chunks) > 0 {
		jobID, err := p.SubmitChunks(result.Chunks, job.DocumentID)
		if err != nil {
			p.failDocument(job.DocumentID, err)
			return
		}

		jobStatus := p.waitForJob(jobID)
		switch jobStatus.Status {
		case core.StatusCompleted:
			if jobStatus.Summary != nil {
				summary = jobStatus.Summary
			}
		case core.StatusFailed:
			p.failDocument(job.DocumentID, fmt.Errorf("embedding job failed: %s", jobStatus.Error))
			return
		default:
			p.failDocument(job.DocumentID, fmt.Errorf("embedding job %s did not complete", jobID))
			return
		}
	}

	if err := p.repo.UpdateQualityMetrics(ctx, job.DocumentID, result.Quality); err != nil {
		p.logger.Error("failed to persist quality metrics",
			"document_id", job.DocumentID, "error", err)
	}

	p.documents.Complete(job.DocumentID, summary)
	p.persistStatus(job.DocumentID, core.StatusCompleted, "")
	p.logger.Info("document completed",
		"document_id", job.DocumentID,
		"chunks", len(result.Chunks),
		"embeddings", summary.EmbeddingsStored,
		"processing_ms", result.ProcessingTimeMs)
}

// extract runs the configured strategy under the document semaphore.
// The semaphore covers extraction only; waiting on downstream stages
// happens without it so a slow embedder cannot starve extraction.
func (p *Pipeline) extract(ctx context.Context, job *core.ProcessingJob) (*core.ProcessingResult, error) {
	if err := p.docSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.docSem.Release(1)

	p.documents.SetStatus(job.DocumentID, core.StatusProcessing)
	p.persistStatus(job.DocumentID, core.StatusProcessing, "")

	return p.strategy.Extract(ctx, job)
}

// waitForJob polls an embedding job until it is terminal, the embed
// wait timeout elapses, or the pipeline is shutting down.
func (p *Pipeline) waitForJob(jobID string) Status {
	deadline := time.Now().Add(p.config.EmbedWaitTimeout)
	for {
		status := p.jobs.Get(jobID)
		if status.Status.Terminal() || time.Now().After(deadline) {
			return status
		}
		select {
		case <-p.stopCh:
			return p.jobs.Get(jobID)
		case <-time.After(p.config.PollInterval):
		}
	}
}

// embeddingWorker is the long-lived loop of one embedding worker.
func (p *Pipeline) embeddingWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case job := <-p.embedQueue:
			p.embedJob(job)
		}
	}
}

// embedJob turns one job's chunks into vectors and hands the result to
// the storage queue. Batches within the job are embedded concurrently
// under a per-job sub-limit; any batch failure fails the whole job.
// The embedding semaphore is released before the storage hand-off so a
// blocked storage queue never withholds embedding capacity.
func (p *Pipeline) embedJob(job *core.EmbeddingJob) {
	ctx := context.Background()

	vectors, err := p.embedChunks(ctx, job)
	if err != nil {
		p.jobs.Fail(job.JobID, err)
		return
	}

	select {
	case p.storeQueue <- &storeTask{job: job, vectors: vectors}:
	case <-p.stopCh:
		p.jobs.Fail(job.JobID, ErrPipelineClosed)
	}
}

// embedChunks runs the batch optimizer and retry-wrapped embedding
// calls under the embedding semaphore.
func (p *Pipeline) embedChunks(ctx context.Context, job *core.EmbeddingJob) ([][]float32, error) {
	if err := p.embedSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.embedSem.Release(1)

	p.jobs.SetStatus(job.JobID, core.StatusProcessing)

	batches := p.batcher.Split(job.Chunks)
	results := make([][][]float32, len(batches))

	var group errgroup.Group
	group.SetLimit(p.config.JobBatchConcurrency)
	for i, batch := range batches {
		i, batch := i, batch
		group.Go(func() error {
			texts := make([]string, len(batch))
			for j, chunk := range batch {
				texts[j] = chunk.Content
			}

			var embeddings [][]float32
			err := p.retry.Do(ctx, func() error {
				var embedErr error
				embeddings, embedErr = p.embedder.EmbedTexts(ctx, texts)
				return embedErr
			})
			if err != nil {
				return fmt.Errorf("batch %d/%d failed: %w", i+1, len(batches), err)
			}
			if len(embeddings) != len(texts) {
				return fmt.Errorf("batch %d/%d: embedding count mismatch: expected %d, got %d",
					i+1, len(batches), len(texts), len(embeddings))
			}
			results[i] = embeddings
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(job.Chunks))
	for _, batchVectors := range results {
		vectors = append(vectors, batchVectors...)
	}
	return vectors, nil
}

// storageWorker is the long-lived loop of one storage worker.
func (p *Pipeline) storageWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case task := <-p.storeQueue:
			p.storeJob(task)
		}
	}
}

// storeJob persists one resolved job's points and records the terminal
// state. The move from active to terminal is atomic in the tracker, so
// no reader observes the job as both.
func (p *Pipeline) storeJob(task *storeTask) {
	ctx := context.Background()
	job := task.job

	if err := p.storeSem.Acquire(ctx, 1); err != nil {
		p.jobs.Fail(job.JobID, err)
		return
	}
	defer p.storeSem.Release(1)

	p.jobs.SetStatus(job.JobID, core.StatusEmbedding)

	points := buildPoints(job, task.vectors)
	if err := p.writePoints(ctx, points); err != nil {
		p.jobs.Fail(job.JobID, err)
		return
	}

	p.jobs.Complete(job.JobID, &core.JobSummary{
		DocumentID:       job.DocumentID,
		ChunksProcessed:  len(job.Chunks),
		EmbeddingsStored: len(points),
	})
}

// writePoints writes points in fixed-size batches, concurrently or
// sequentially per configuration.
func (p *Pipeline) writePoints(ctx context.Context, points []*vectorstore.Point) error {
	batchSize := p.config.StorageBatchSize
	var batches [][]*vectorstore.Point
	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		batches = append(batches, points[start:end])
	}

	if p.config.SequentialStorage {
		for _, batch := range batches {
			if err := p.store.Upsert(ctx, p.config.Collection, batch); err != nil {
				return err
			}
		}
		return nil
	}

	var group errgroup.Group
	group.SetLimit(p.config.StorageConcurrency)
	for _, batch := range batches {
		batch := batch
		group.Go(func() error {
			return p.store.Upsert(ctx, p.config.Collection, batch)
		})
	}
	return group.Wait()
}

// buildPoints converts chunks and vectors into store points. Point IDs
// reuse the chunk's content-derived ID so re-ingestion overwrites.
func buildPoints(job *core.EmbeddingJob, vectors [][]float32) []*vectorstore.Point {
	count := len(job.Chunks)
	if len(vectors) < count {
		count = len(vectors)
	}

	points := make([]*vectorstore.Point, 0, count)
	for i := 0; i < count; i++ {
		chunk := job.Chunks[i]
		payload := map[string]string{
			"document_id": job.DocumentID,
			"content":     chunk.Content,
			"chunk_index": fmt.Sprintf("%d", chunk.Index),
			"method":      chunk.Method,
		}
		for key, value := range chunk.Metadata {
			payload[key] = value
		}
		points = append(points, &vectorstore.Point{
			ID:      chunk.ID,
			Vector:  vectors[i],
			Payload: payload,
		})
	}
	return points
}

// failDocument records a document failure in the tracker and the
// repository.
func (p *Pipeline) failDocument(documentID string, err error) {
	p.logger.Error("document failed", "document_id", documentID, "error", err)
	p.documents.Fail(documentID, err)
	p.persistStatus(documentID, core.StatusFailed, err.Error())
}

// persistStatus mirrors a tracker transition into the repository.
// Persistence failures are logged; the in-memory tracker remains the
// source of truth for live queries.
func (p *Pipeline) persistStatus(documentID string, status core.JobStatus, errMsg string) {
	if err := p.repo.UpdateStatus(context.Background(), documentID, status, errMsg); err != nil {
		p.logger.Error("failed to persist status",
			"document_id", documentID, "status", status.String(), "error", err)
	}
}
