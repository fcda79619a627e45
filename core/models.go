package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for content-addressed entities such as
// vector store points and chunks. It is generated with content-based
// hashing so that identical content produces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocType identifies the format of a submitted document.
type DocType string

const (
	DocTypePDF      DocType = "pdf"
	DocTypeDOCX     DocType = "docx"
	DocTypeEPUB     DocType = "epub"
	DocTypeHTML     DocType = "html"
	DocTypeMarkdown DocType = "md"
	DocTypeText     DocType = "txt"
	DocTypeURL      DocType = "url"
)

// HeavyweightDocTypes lists formats whose extraction is IO/CPU heavy
// enough to warrant offloading to a blocking worker pool.
var HeavyweightDocTypes = []DocType{DocTypePDF, DocTypeDOCX, DocTypeEPUB}

// IsHeavyweight reports whether extraction of this format should be
// treated as a blocking, pool-offloaded operation.
func (d DocType) IsHeavyweight() bool {
	for _, t := range HeavyweightDocTypes {
		if d == t {
			return true
		}
	}
	return false
}

// JobStatus tracks a document or embedding job through the pipeline.
// Transitions are monotonic forward except StatusFailed, which is
// reachable from any non-terminal state. StatusCompleted and
// StatusFailed are terminal.
type JobStatus int

const (
	// StatusUnknown is the zero value, reported for IDs never submitted.
	StatusUnknown JobStatus = iota
	// StatusQueued means the job is waiting in a stage queue.
	StatusQueued
	// StatusProcessing means extraction (or embedding, for embedding jobs) is running.
	StatusProcessing
	// StatusEmbedding means chunks were handed to the embedding/storage stages.
	StatusEmbedding
	// StatusCompleted means all stages finished successfully.
	StatusCompleted
	// StatusFailed means a stage failed; the error is recorded alongside.
	StatusFailed
)

// String returns the wire representation of the status.
func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusEmbedding:
		return "embedding"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// Terminal reports whether the status will never change again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProcessingJob is a request to ingest one document. It is created on
// submission, is immutable, and is owned exclusively by the document
// worker pool until it reaches a terminal state.
type ProcessingJob struct {
	DocumentID  string
	FilePath    string
	DocType     DocType
	Priority    int
	UserID      string
	SubmittedAt time.Time
}

// EmbeddingJob carries the chunks of one document through the
// embedding and storage stages. It is owned by the embedding worker
// pool and then handed by value to the storage worker pool.
type EmbeddingJob struct {
	JobID       string
	DocumentID  string
	Chunks      []*Chunk
	Priority    int
	SubmittedAt time.Time
}

// Chunk is a bounded slice of a document's extracted text with its own
// quality score. Chunks are produced by the extractor and immutable
// thereafter.
type Chunk struct {
	ID           ID
	DocumentID   string
	Content      string
	Index        int
	QualityScore float64
	Method       string
	Metadata     map[string]string
}

// Entity is a named entity detected in a chunk, consumed by an
// external knowledge-graph collaborator.
type Entity struct {
	Name          string
	Type          string
	Confidence    float64
	SourceChunkID ID
	Metadata      map[string]string
}

// QualityMetrics summarizes extraction quality for one document.
type QualityMetrics struct {
	ChunkCount  int
	EntityCount int
	MeanScore   float64
	MinScore    float64
	MaxScore    float64
	TotalChars  int
}

// ProcessingResult is the terminal artifact of extraction for one document.
type ProcessingResult struct {
	DocumentID       string
	Chunks           []*Chunk
	Entities         []*Entity
	Quality          QualityMetrics
	ProcessingTimeMs int64
}

// JobSummary records what a completed embedding job produced.
type JobSummary struct {
	DocumentID       string
	ChunksProcessed  int
	EmbeddingsStored int
}

// DocumentRecord is the persisted view of a submitted document. It is
// what startup recovery scans to find work left mid-flight.
type DocumentRecord struct {
	ID          string
	FilePath    string
	DocType     DocType
	SourceURL   string
	UserID      string
	Status      JobStatus
	Error       string
	Quality     QualityMetrics
	SubmittedAt time.Time
	UpdatedAt   time.Time
}
