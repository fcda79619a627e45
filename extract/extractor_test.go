package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamsih300u/bastion/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestEPUB writes a minimal EPUB container: a mimetype entry plus
// XHTML content documents.
func writeTestEPUB(t *testing.T, path string, chapters map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mt, err := w.Create("mimetype")
	require.NoError(t, err)
	_, err = mt.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	for name, body := range chapters {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("<html><body><p>" + body + "</p></body></html>"))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestExtractDocument_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	content := strings.Repeat("A paragraph of meaningful text for the extractor to chunk.\n", 40)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	e := NewDocconvExtractor(&Config{TargetTokens: 100, OverlapTokens: 0, MinChunkChars: 10})
	result, err := e.ExtractDocument(context.Background(), path, core.DocTypeText, "doc-1")
	require.NoError(t, err)

	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Equal(t, len(result.Chunks), result.Quality.ChunkCount)

	for i, chunk := range result.Chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.NotZero(t, chunk.ID, "chunk IDs must be content-derived, never zero")
		assert.Equal(t, "docconv", chunk.Method)
		assert.GreaterOrEqual(t, chunk.QualityScore, 0.0)
		assert.LessOrEqual(t, chunk.QualityScore, 1.0)
	}
}

func TestExtractDocument_StableChunkIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nsome body text that is long enough to keep"), 0644))

	e := NewDocconvExtractor(nil)
	first, err := e.ExtractDocument(context.Background(), path, core.DocTypeMarkdown, "doc-9")
	require.NoError(t, err)
	second, err := e.ExtractDocument(context.Background(), path, core.DocTypeMarkdown, "doc-9")
	require.NoError(t, err)

	require.Equal(t, len(first.Chunks), len(second.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].ID, second.Chunks[i].ID,
			"re-extraction must produce identical point IDs for idempotent upserts")
	}
}

func TestExtractDocument_EPUB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.epub")
	writeTestEPUB(t, path, map[string]string{
		"OEBPS/chapter1.xhtml": strings.Repeat("The first chapter has enough prose to produce a chunk. ", 20),
		"OEBPS/chapter2.xhtml": strings.Repeat("The second chapter continues the running narrative. ", 20),
		"OEBPS/styles.css":     "p { margin: 0 }",
	})

	e := NewDocconvExtractor(&Config{TargetTokens: 100, OverlapTokens: 0, MinChunkChars: 10})
	result, err := e.ExtractDocument(context.Background(), path, core.DocTypeEPUB, "book-1")
	require.NoError(t, err)

	require.NotEmpty(t, result.Chunks)
	joined := ""
	for _, chunk := range result.Chunks {
		joined += chunk.Content + " "
	}
	assert.Contains(t, joined, "first chapter")
	assert.Contains(t, joined, "second chapter")
}

func TestExtractDocument_EPUBWithoutContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.epub")
	writeTestEPUB(t, path, nil)

	e := NewDocconvExtractor(nil)
	_, err := e.ExtractDocument(context.Background(), path, core.DocTypeEPUB, "book-2")
	require.Error(t, err)

	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.KindExternal, perr.Kind)
}

func TestExtractDocument_MissingFile(t *testing.T) {
	e := NewDocconvExtractor(nil)
	_, err := e.ExtractDocument(context.Background(), "/no/such/file.txt", core.DocTypeText, "doc-2")
	require.Error(t, err)

	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.KindValidation, perr.Kind, "unreadable path is a validation error, never retried")
}

func TestExtractDocument_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.xyz")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	e := NewDocconvExtractor(nil)
	_, err := e.ExtractDocument(context.Background(), path, core.DocType("xyz"), "doc-3")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidDocType)
}
