package pipeline

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrExtractorRequired is returned when a document extractor is not provided.
	ErrExtractorRequired = errors.New("document extractor required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrPipelineClosed is returned when submitting to a closed pipeline.
	ErrPipelineClosed = errors.New("pipeline is closed")

	// ErrQueueFull is returned when a stage queue cannot accept more work.
	ErrQueueFull = errors.New("queue is full")

	// ErrNoChunks is returned when submitting an embedding job without chunks.
	ErrNoChunks = errors.New("no chunks to embed")

	// ErrUnknownStrategy is returned for an unrecognized processing strategy name.
	ErrUnknownStrategy = errors.New("unknown processing strategy")

	// ErrInvalidMaxAttempts is returned when retry attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
