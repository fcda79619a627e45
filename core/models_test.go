package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent_Deterministic(t *testing.T) {
	id1 := IDFromContent("the same chunk content")
	id2 := IDFromContent("the same chunk content")
	assert.Equal(t, id1, id2, "identical content must produce identical IDs")
}

func TestIDFromContent_Distinct(t *testing.T) {
	id1 := IDFromContent("chunk one")
	id2 := IDFromContent("chunk two")
	assert.NotEqual(t, id1, id2)
}

func TestJobStatus_String(t *testing.T) {
	cases := map[JobStatus]string{
		StatusQueued:     "queued",
		StatusProcessing: "processing",
		StatusEmbedding:  "embedding",
		StatusCompleted:  "completed",
		StatusFailed:     "failed",
		StatusUnknown:    "not_found",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusEmbedding.Terminal())
}

func TestDocType_IsHeavyweight(t *testing.T) {
	assert.True(t, DocTypePDF.IsHeavyweight())
	assert.True(t, DocTypeDOCX.IsHeavyweight())
	assert.True(t, DocTypeEPUB.IsHeavyweight())
	assert.False(t, DocTypeText.IsHeavyweight())
	assert.False(t, DocTypeMarkdown.IsHeavyweight())
}

func TestPipelineError_KindAndUnwrap(t *testing.T) {
	cause := ErrEmptyFilePath
	err := NewValidationError("submit", cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, KindValidation, err.Kind)
	assert.Contains(t, err.Error(), "validation")

	rl := NewRateLimitError("embed", assert.AnError, 0)
	assert.Equal(t, KindRateLimit, rl.Kind)
	assert.Contains(t, rl.Error(), "rate_limit")
}
