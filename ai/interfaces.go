package ai

import (
	"context"

	"github.com/adamsih300u/bastion/core"
)

// Embedder generates vector embeddings from text. Implementations must
// be thread-safe for concurrent use; the embedding worker pool calls
// EmbedTexts from several workers at once.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings
	// in a batch. The returned slice contains embeddings in the same
	// order as the input texts. Errors carry enough information for
	// rate-limit classification by the retry policy.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentExtractor converts a file into chunks, entities and quality
// metrics. Extraction is synchronous and CPU/IO-heavy; the document
// worker pool decides how to schedule it via its processing strategy.
// Implementations must be thread-safe for concurrent use.
type DocumentExtractor interface {
	// ExtractDocument extracts text from the file at filePath, splits
	// it into scored chunks and detects entities. The returned result
	// is the terminal artifact of extraction for the document.
	ExtractDocument(ctx context.Context, filePath string, docType core.DocType, documentID string) (*core.ProcessingResult, error)
}
