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


package bastion

import (
	"context"
	"log/slog"
	"time"

	"github.com/adamsih300u/bastion/ai"
	"github.com/adamsih300u/bastion/ai/openai"
	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/extract"
	"github.com/adamsih300u/bastion/notify"
	"github.com/adamsih300u/bastion/pipeline"
	"github.com/adamsih300u/bastion/storage"
	"github.com/adamsih300u/bastion/storage/badger"
	"github.com/adamsih300u/bastion/vectorstore"
	"github.com/adamsih300u/bastion/vectorstore/pgvector"
)

// KnowledgeBase wires the document repository, extractor, embedder,
// vector store, and processing pipeline into one handle.
type KnowledgeBase struct {
	backend  *badger.Backend
	repo     storage.DocumentRepository
	store    vectorstore.Store
	pipeline *pipeline.Pipeline
	logger   *slog.Logger

	ownsStore bool
}

// Option configures a KnowledgeBase.
type Option func(*kbOptions)

type kbOptions struct {
	aiConfig       *ai.Config
	pipelineConfig *pipeline.Config
	storeConfig    *pgvector.Config
	extractConfig  *extract.Config

	store       vectorstore.Store
	extractor   ai.DocumentExtractor
	embedder    ai.Embedder
	notifier    notify.Notifier
	urlImporter func(ctx context.Context, record *core.DocumentRecord) error
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) Option {
	return func(o *kbOptions) { o.aiConfig = config }
}

// WithPipelineConfig sets the processing pipeline configuration.
func WithPipelineConfig(config *pipeline.Config) Option {
	return func(o *kbOptions) { o.pipelineConfig = config }
}

// WithVectorStoreConfig sets the pgvector connection configuration.
func WithVectorStoreConfig(config *pgvector.Config) Option {
	return func(o *kbOptions) { o.storeConfig = config }
}

// WithExtractConfig sets chunking parameters for the built-in extractor.
func WithExtractConfig(config *extract.Config) Option {
	return func(o *kbOptions) { o.extractConfig = config }
}

// WithVectorStore injects a vector store, replacing the pgvector default.
func WithVectorStore(store vectorstore.Store) Option {
	return func(o *kbOptions) { o.store = store }
}

// WithExtractor injects a document extractor, replacing the docconv default.
func WithExtractor(extractor ai.DocumentExtractor) Option {
	return func(o *kbOptions) { o.extractor = extractor }
}

// WithEmbedder injects an embedder, replacing the OpenAI-compatible default.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *kbOptions) { o.embedder = embedder }
}

// WithNotifier attaches a status notifier.
func WithNotifier(notifier notify.Notifier) Option {
	return func(o *kbOptions) { o.notifier = notifier }
}

// WithURLImporter sets the recovery callback for URL-sourced documents.
func WithURLImporter(importer func(ctx context.Context, record *core.DocumentRecord) error) Option {
	return func(o *kbOptions) { o.urlImporter = importer }
}

// Open opens the document repository at dbPath and assembles the
// processing pipeline around it. A vector store must come from either
// WithVectorStoreConfig or WithVectorStore.
func Open(ctx context.Context, dbPath string, opts ...Option) (*KnowledgeBase, error) {
	options := &kbOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	store := options.store
	ownsStore := false
	if store == nil {
		if options.storeConfig == nil {
			backend.Close()
			return nil, pipeline.ErrStoreRequired
		}
		store, err = pgvector.NewStore(ctx, options.storeConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
		ownsStore = true
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			if ownsStore {
				store.Close()
			}
			backend.Close()
			return nil, err
		}
	}

	extractor := options.extractor
	if extractor == nil {
		extractor = extract.NewDocconvExtractor(options.extractConfig)
	}

	pipelineOpts := []pipeline.Option{}
	if options.notifier != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithNotifier(options.notifier))
	}
	if options.urlImporter != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithURLImporter(options.urlImporter))
	}

	p, err := pipeline.New(options.pipelineConfig, repo, extractor, embedder, store, pipelineOpts...)
	if err != nil {
		if ownsStore {
			store.Close()
		}
		backend.Close()
		return nil, err
	}

	return &KnowledgeBase{
		backend:   backend,
		repo:      repo,
		store:     store,
		pipeline:  p,
		logger:    slog.Default(),
		ownsStore: ownsStore,
	}, nil
}

// Ingest submits a document for processing. Non-blocking.
func (kb *KnowledgeBase) Ingest(documentID, filePath string, docType core.DocType, userID string, priority int) bool {
	return kb.pipeline.Submit(documentID, filePath, docType, userID, priority)
}

// IngestChunks submits pre-extracted chunks for embedding and storage.
func (kb *KnowledgeBase) IngestChunks(chunks []*core.Chunk, documentID string) (string, error) {
	return kb.pipeline.SubmitChunks(chunks, documentID)
}

// Status returns the processing status of a submitted document.
func (kb *KnowledgeBase) Status(documentID string) pipeline.Status {
	return kb.pipeline.GetStatus(documentID)
}

// JobStatus returns the status of an embedding job.
func (kb *KnowledgeBase) JobStatus(jobID string) pipeline.Status {
	return kb.pipeline.GetJobStatus(jobID)
}

// QueueStats returns a snapshot of pipeline load.
func (kb *KnowledgeBase) QueueStats() pipeline.QueueStats {
	return kb.pipeline.GetQueueStats()
}

// WaitForDocument blocks until the document is terminal or the timeout
// elapses. Returns true only on completion.
func (kb *KnowledgeBase) WaitForDocument(documentID string, timeout time.Duration) bool {
	return kb.pipeline.WaitForDocumentCompletion(documentID, timeout)
}

// WaitForAll blocks until all submitted work is terminal or the
// timeout elapses.
func (kb *KnowledgeBase) WaitForAll(timeout time.Duration) bool {
	return kb.pipeline.WaitForAllCompletion(timeout)
}

// Recover starts background recovery of documents left mid-flight by a
// previous process. It returns immediately; the result is logged.
func (kb *KnowledgeBase) Recover(ctx context.Context) {
	go func() {
		if _, err := kb.pipeline.RecoverPending(ctx); err != nil {
			kb.logger.Error("startup recovery failed", "err", err)
		}
	}()
}

// Repository exposes the document repository.
func (kb *KnowledgeBase) Repository() storage.DocumentRepository {
	return kb.repo
}

// Pipeline exposes the processing pipeline.
func (kb *KnowledgeBase) Pipeline() *pipeline.Pipeline {
	return kb.pipeline
}

// Close shuts down the pipeline, then the storage handles.
func (kb *KnowledgeBase) Close() error {
	kb.pipeline.Close()

	if kb.ownsStore {
		if err := kb.store.Close(); err != nil {
			kb.logger.Error("error closing vector store", "err", err)
		}
	}
	if err := kb.repo.Close(); err != nil {
		kb.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
