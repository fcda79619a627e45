package pipeline

import (
	"fmt"
	"time"
)

// Processing strategy names. See strategy.go for semantics.
const (
	StrategyAsyncConcurrent = "async-concurrent"
	StrategyThreadPool      = "thread-pool"
	StrategyProcessPool     = "process-pool"
	StrategyHybrid          = "hybrid"
)

// Config holds tunables for all pipeline stages. Zero values are
// replaced by defaults in Validate, so a partially filled Config is
// usable.
type Config struct {
	// DocumentWorkers is the number of document workers and the
	// extraction concurrency cap.
	DocumentWorkers int
	// EmbeddingWorkers is the number of embedding workers and the
	// embedding concurrency cap.
	EmbeddingWorkers int
	// StorageWorkers is the number of storage workers and the storage
	// concurrency cap.
	StorageWorkers int

	// DocumentQueueSize bounds the document submission queue.
	DocumentQueueSize int
	// EmbeddingQueueSize bounds the embedding and storage hand-off queues.
	EmbeddingQueueSize int

	// Strategy selects how extraction runs. One of the Strategy*
	// constants; resolved once at construction.
	Strategy string
	// PostProcessBatchSize is the chunk batch size for post-extraction
	// fan-out in the async-concurrent strategy.
	PostProcessBatchSize int
	// HybridSizeThreshold is the chunk count above which the hybrid
	// strategy post-processes chunks in parallel.
	HybridSizeThreshold int

	// MaxBatchTokens caps the estimated token sum per embedding batch.
	MaxBatchTokens int
	// MaxBatchItems caps the chunk count per embedding batch.
	MaxBatchItems int
	// CharsPerToken is the character-to-token estimate divisor.
	CharsPerToken int
	// JobBatchConcurrency bounds concurrent batch embedding within one job.
	JobBatchConcurrency int

	// MaxRetries is how many times a failed embedding call is retried
	// after its first attempt.
	MaxRetries int
	// RateLimitFloor is the minimum wait before retrying a rate-limited
	// call, enforced over any provider hint.
	RateLimitFloor time.Duration
	// RateLimitCap bounds exponential backoff for rate-limited calls.
	RateLimitCap time.Duration
	// TransientCap bounds exponential backoff for transient failures.
	TransientCap time.Duration

	// StorageBatchSize is the number of points per vector store write.
	StorageBatchSize int
	// StorageConcurrency bounds parallel batch writes per job.
	StorageConcurrency int
	// SequentialStorage forces ordered, one-at-a-time batch writes.
	SequentialStorage bool

	// EmbedWaitTimeout bounds how long a document worker waits for its
	// embedding job before declaring the document failed.
	EmbedWaitTimeout time.Duration
	// PollInterval is the status poll interval for WaitFor* calls.
	PollInterval time.Duration

	// RecoveryConcurrency bounds parallel document recovery at startup.
	RecoveryConcurrency int
	// UploadDir is where recovery looks for original uploads.
	UploadDir string

	// Collection is the vector store collection points are written to.
	Collection string
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		DocumentWorkers:      12,
		EmbeddingWorkers:     8,
		StorageWorkers:       8,
		DocumentQueueSize:    256,
		EmbeddingQueueSize:   256,
		Strategy:             StrategyHybrid,
		PostProcessBatchSize: 32,
		HybridSizeThreshold:  20,
		MaxBatchTokens:       7000,
		MaxBatchItems:        64,
		CharsPerToken:        3,
		JobBatchConcurrency:  3,
		MaxRetries:           3,
		RateLimitFloor:       5 * time.Second,
		RateLimitCap:         60 * time.Second,
		TransientCap:         30 * time.Second,
		StorageBatchSize:     100,
		StorageConcurrency:   2,
		EmbedWaitTimeout:     10 * time.Minute,
		PollInterval:         time.Second,
		RecoveryConcurrency:  4,
		Collection:           "documents",
	}
}

// Validate fills zero values with defaults and rejects invalid settings.
func (c *Config) Validate() error {
	defaults := DefaultConfig()

	if c.DocumentWorkers <= 0 {
		c.DocumentWorkers = defaults.DocumentWorkers
	}
	if c.EmbeddingWorkers <= 0 {
		c.EmbeddingWorkers = defaults.EmbeddingWorkers
	}
	if c.StorageWorkers <= 0 {
		c.StorageWorkers = defaults.StorageWorkers
	}
	if c.DocumentQueueSize <= 0 {
		c.DocumentQueueSize = defaults.DocumentQueueSize
	}
	if c.EmbeddingQueueSize <= 0 {
		c.EmbeddingQueueSize = defaults.EmbeddingQueueSize
	}
	if c.Strategy == "" {
		c.Strategy = defaults.Strategy
	}
	switch c.Strategy {
	case StrategyAsyncConcurrent, StrategyThreadPool, StrategyProcessPool, StrategyHybrid:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy)
	}
	if c.PostProcessBatchSize <= 0 {
		c.PostProcessBatchSize = defaults.PostProcessBatchSize
	}
	if c.HybridSizeThreshold <= 0 {
		c.HybridSizeThreshold = defaults.HybridSizeThreshold
	}
	if c.MaxBatchTokens <= 0 {
		c.MaxBatchTokens = defaults.MaxBatchTokens
	}
	if c.MaxBatchItems <= 0 {
		c.MaxBatchItems = defaults.MaxBatchItems
	}
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = defaults.CharsPerToken
	}
	if c.JobBatchConcurrency <= 0 {
		c.JobBatchConcurrency = defaults.JobBatchConcurrency
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.RateLimitFloor <= 0 {
		c.RateLimitFloor = defaults.RateLimitFloor
	}
	if c.RateLimitCap <= 0 {
		c.RateLimitCap = defaults.RateLimitCap
	}
	if c.TransientCap <= 0 {
		c.TransientCap = defaults.TransientCap
	}
	if c.StorageBatchSize <= 0 {
		c.StorageBatchSize = defaults.StorageBatchSize
	}
	if c.StorageConcurrency <= 0 {
		c.StorageConcurrency = defaults.StorageConcurrency
	}
	if c.EmbedWaitTimeout <= 0 {
		c.EmbedWaitTimeout = defaults.EmbedWaitTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RecoveryConcurrency <= 0 {
		c.RecoveryConcurrency = defaults.RecoveryConcurrency
	}
	if c.Collection == "" {
		c.Collection = defaults.Collection
	}
	return nil
}
