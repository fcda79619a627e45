package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProcessingJob(t *testing.T) {
	job := &ProcessingJob{
		DocumentID: "doc-1",
		FilePath:   "/uploads/doc-1.pdf",
		DocType:    DocTypePDF,
	}
	require.NoError(t, ValidateProcessingJob(job))
}

func TestValidateProcessingJob_Invalid(t *testing.T) {
	tests := []struct {
		name string
		job  *ProcessingJob
		want error
	}{
		{"nil job", nil, ErrInvalidJob},
		{"empty document ID", &ProcessingJob{FilePath: "/a.pdf", DocType: DocTypePDF}, ErrEmptyDocumentID},
		{"empty file path", &ProcessingJob{DocumentID: "d", DocType: DocTypePDF}, ErrEmptyFilePath},
		{"bad doc type", &ProcessingJob{DocumentID: "d", FilePath: "/a.xyz", DocType: "xyz"}, ErrInvalidDocType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProcessingJob(tt.job)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateChunk(t *testing.T) {
	require.NoError(t, ValidateChunk(&Chunk{DocumentID: "d", Content: "text"}))

	err := ValidateChunk(&Chunk{DocumentID: "d"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyContent)

	err = ValidateChunk(&Chunk{Content: "text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDocumentID)
}

func TestValidateJobStatus(t *testing.T) {
	for _, s := range []JobStatus{StatusQueued, StatusProcessing, StatusEmbedding, StatusCompleted, StatusFailed} {
		assert.NoError(t, ValidateJobStatus(s))
	}
	assert.Error(t, ValidateJobStatus(StatusUnknown))
	assert.Error(t, ValidateJobStatus(JobStatus(42)))
}
