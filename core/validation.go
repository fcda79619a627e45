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


package core

import "fmt"

// ValidateProcessingJob validates a ProcessingJob according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - FilePath must not be empty (URL imports carry the URL here)
//   - DocType must be a known format
//
// NOT validated:
//   - Priority (any int is accepted; 0 is the default)
//   - UserID (optional)
func ValidateProcessingJob(job *ProcessingJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if job.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyDocumentID)
	}

	if job.FilePath == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyFilePath)
	}

	if err := ValidateDocType(job.DocType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - DocumentID must not be empty
//
// NOT validated (populated by post-processing):
//   - ID (0 is valid until the content hash is assigned)
//   - QualityScore (clamped by post-processing)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}

	return nil
}

// ValidateDocType validates that a DocType is a supported format.
func ValidateDocType(docType DocType) error {
	switch docType {
	case DocTypePDF, DocTypeDOCX, DocTypeEPUB, DocTypeHTML, DocTypeMarkdown, DocTypeText, DocTypeURL:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDocType, docType)
	}
}

// ValidateJobStatus validates that a JobStatus has a valid value.
func ValidateJobStatus(status JobStatus) error {
	if status < StatusQueued || status > StatusFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}
