package badger

import (
	"context"
	"testing"
	"time"

	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func testRecord(id string, status core.JobStatus) *core.DocumentRecord {
	return &core.DocumentRecord{
		ID:          id,
		FilePath:    "/uploads/" + id + ".pdf",
		DocType:     core.DocTypePDF,
		UserID:      "user-1",
		Status:      status,
		SubmittedAt: time.Now().UTC(),
	}
}

func TestPutAndGetDocument(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	record := testRecord("doc-1", core.StatusQueued)
	require.NoError(t, repo.PutDocument(ctx, record))

	got, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, core.DocTypePDF, got.DocType)
	assert.Equal(t, core.StatusQueued, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestPutDocument_EmptyID(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.PutDocument(context.Background(), &core.DocumentRecord{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyDocumentID)
}

func TestGetDocument_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetDocument(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-1", core.StatusQueued)))
	require.NoError(t, repo.UpdateStatus(ctx, "doc-1", core.StatusProcessing, ""))

	got, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, got.Status)
	assert.Empty(t, got.Error)

	require.NoError(t, repo.UpdateStatus(ctx, "doc-1", core.StatusFailed, "extraction failed"))

	got, err = repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.Equal(t, "extraction failed", got.Error)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.UpdateStatus(context.Background(), "nope", core.StatusCompleted, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateQualityMetrics(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-1", core.StatusQueued)))

	quality := core.QualityMetrics{
		ChunkCount: 9,
		MeanScore:  0.66,
		MinScore:   0.31,
		MaxScore:   0.88,
		TotalChars: 12044,
	}
	require.NoError(t, repo.UpdateQualityMetrics(ctx, "doc-1", quality))

	got, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, quality, got.Quality)
}

func TestGetDocumentsByStatus(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-a", core.StatusProcessing)))
	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-b", core.StatusProcessing)))
	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-c", core.StatusCompleted)))

	processing, err := repo.GetDocumentsByStatus(ctx, core.StatusProcessing)
	require.NoError(t, err)
	require.Len(t, processing, 2)

	ids := []string{processing[0].ID, processing[1].ID}
	assert.Contains(t, ids, "doc-a")
	assert.Contains(t, ids, "doc-b")

	completed, err := repo.GetDocumentsByStatus(ctx, core.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "doc-c", completed[0].ID)
}

func TestGetDocumentsByStatus_IndexFollowsTransitions(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-a", core.StatusProcessing)))
	require.NoError(t, repo.UpdateStatus(ctx, "doc-a", core.StatusCompleted, ""))

	processing, err := repo.GetDocumentsByStatus(ctx, core.StatusProcessing)
	require.NoError(t, err)
	assert.Empty(t, processing, "completed documents must leave the processing index")

	completed, err := repo.GetDocumentsByStatus(ctx, core.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "doc-a", completed[0].ID)
}

func TestDeleteDocument(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-1", core.StatusQueued)))
	require.NoError(t, repo.DeleteDocument(ctx, "doc-1"))

	_, err := repo.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	queued, err := repo.GetDocumentsByStatus(ctx, core.StatusQueued)
	require.NoError(t, err)
	assert.Empty(t, queued)

	err = repo.DeleteDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOperationsAfterClose_ReturnStorageClosed(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-1", core.StatusQueued)))
	require.NoError(t, backend.Close())

	_, err = repo.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = repo.PutDocument(ctx, testRecord("doc-2", core.StatusQueued))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = repo.UpdateStatus(ctx, "doc-1", core.StatusProcessing, "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = repo.GetDocumentsByStatus(ctx, core.StatusQueued)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestPutDocument_OverwriteChangesStatusIndex(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-1", core.StatusQueued)))
	require.NoError(t, repo.PutDocument(ctx, testRecord("doc-1", core.StatusFailed)))

	queued, err := repo.GetDocumentsByStatus(ctx, core.StatusQueued)
	require.NoError(t, err)
	assert.Empty(t, queued)

	failed, err := repo.GetDocumentsByStatus(ctx, core.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
}
