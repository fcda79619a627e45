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


package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"github.com/adamsih300u/bastion/ai"
	"github.com/adamsih300u/bastion/core"
)

// Config holds chunking parameters for the extractor.
type Config struct {
	// TargetTokens is the approximate token budget per chunk.
	// Default: 400
	TargetTokens int

	// OverlapTokens is how many tokens from the end of a chunk are
	// retained as the seed of the next chunk. Default: 50
	OverlapTokens int

	// MinChunkChars drops trailing fragments shorter than this.
	// Default: 40
	MinChunkChars int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TargetTokens:  400,
		OverlapTokens: 50,
		MinChunkChars: 40,
	}
}

// DocconvExtractor implements ai.DocumentExtractor using docconv for
// text conversion. It handles PDF, DOCX, EPUB, HTML, Markdown and
// plain text; EPUB containers are unpacked and their content documents
// converted as HTML.
type DocconvExtractor struct {
	cfg    *Config
	logger *slog.Logger
}

var _ ai.DocumentExtractor = (*DocconvExtractor)(nil)

// NewDocconvExtractor creates an extractor with the given chunking
// configuration. A nil config uses defaults.
func NewDocconvExtractor(cfg *Config) *DocconvExtractor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &DocconvExtractor{
		cfg:    cfg,
		logger: slog.Default().With("component", "docconv-extractor"),
	}
}

// mimeTypes maps document formats to the MIME types docconv dispatches on.
var mimeTypes = map[core.DocType]string{
	core.DocTypePDF:      "application/pdf",
	core.DocTypeDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	core.DocTypeHTML:     "text/html",
	core.DocTypeMarkdown: "text/plain",
	core.DocTypeText:     "text/plain",
}

// ExtractDocument reads the file, converts it to text, splits the text
// into token-bounded chunks, scores each chunk and detects entities.
func (e *DocconvExtractor) ExtractDocument(ctx context.Context, filePath string, docType core.DocType, documentID string) (*core.ProcessingResult, error) {
	start := time.Now()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, core.NewValidationError("extract", fmt.Errorf("read %s: %w", filePath, err))
	}

	var text string
	if docType == core.DocTypeEPUB {
		text, err = e.convertEPUB(data)
	} else {
		mime, ok := mimeTypes[docType]
		if !ok {
			return nil, core.NewValidationError("extract", fmt.Errorf("%w: %q", core.ErrInvalidDocType, docType))
		}
		text, err = e.convert(data, mime)
	}
	if err != nil {
		return nil, core.NewExternalError("extract", fmt.Errorf("convert %s: %w", filePath, err))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pieces := splitText(text, e.cfg.TargetTokens, e.cfg.OverlapTokens, e.cfg.MinChunkChars)

	chunks := make([]*core.Chunk, len(pieces))
	totalChars := 0
	for i, piece := range pieces {
		chunks[i] = &core.Chunk{
			ID:           core.IDFromContent(documentID + "\x00" + piece),
			DocumentID:   documentID,
			Content:      piece,
			Index:        i,
			QualityScore: scoreChunk(piece, e.cfg.TargetTokens),
			Method:       "docconv",
		}
		totalChars += len(piece)
	}

	entities := detectEntities(chunks)

	result := &core.ProcessingResult{
		DocumentID:       documentID,
		Chunks:           chunks,
		Entities:         entities,
		Quality:          aggregateQuality(chunks, entities, totalChars),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	e.logger.Debug("extraction finished",
		"document", documentID,
		"chunks", len(chunks),
		"entities", len(entities),
		"ms", result.ProcessingTimeMs)

	return result, nil
}

// convert turns raw bytes into plain text. Plain text and Markdown skip
// docconv entirely since they need no conversion.
func (e *DocconvExtractor) convert(data []byte, mime string) (string, error) {
	if mime == "text/plain" {
		return string(data), nil
	}

	res, err := docconv.Convert(bytes.NewReader(data), mime, false)
	if err != nil {
		return "", err
	}
	if res.Body == "" {
		return "", fmt.Errorf("empty conversion result")
	}
	return res.Body, nil
}

// convertEPUB unpacks an EPUB container and converts each XHTML content
// document. Documents are concatenated in container order.
func (e *DocconvExtractor) convertEPUB(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open epub container: %w", err)
	}

	var b strings.Builder
	for _, f := range zr.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".xhtml", ".html", ".htm":
		default:
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		res, err := docconv.Convert(rc, "text/html", false)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("convert %s: %w", f.Name, err)
		}
		if res.Body != "" {
			b.WriteString(res.Body)
			b.WriteString("\n")
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no content documents in epub")
	}
	return b.String(), nil
}
