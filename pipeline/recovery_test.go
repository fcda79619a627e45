package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamsih300u/bastion/core"
)

func persistRecord(t *testing.T, f *pipelineFixture, record *core.DocumentRecord) {
	t.Helper()
	require.NoError(t, f.repo.PutDocument(context.Background(), record))
}

func TestRecoverPending_Resubmits(t *testing.T) {
	uploads := t.TempDir()
	cfg := testConfig()
	cfg.UploadDir = uploads
	f := newPipelineFixture(t, cfg)

	path := filepath.Join(uploads, "doc-1.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))

	persistRecord(t, f, &core.DocumentRecord{
		ID:       "doc-1",
		FilePath: path,
		DocType:  core.DocTypeText,
		UserID:   "user-1",
		Status:   core.StatusProcessing,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Resubmitted)
	assert.Equal(t, 0, report.Failed)

	require.True(t, f.pipeline.WaitForDocumentCompletion("doc-1", 5*time.Second))
	assert.Equal(t, core.StatusCompleted, f.pipeline.GetStatus("doc-1").Status)
}

func TestRecoverPending_DeterministicUploadPath(t *testing.T) {
	uploads := t.TempDir()
	cfg := testConfig()
	cfg.UploadDir = uploads
	f := newPipelineFixture(t, cfg)

	// Recorded path is gone; the upload-dir naming convention survives.
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "doc-1.pdf"), []byte("pdf"), 0644))

	persistRecord(t, f, &core.DocumentRecord{
		ID:       "doc-1",
		FilePath: "/gone/doc-1.pdf",
		DocType:  core.DocTypePDF,
		UserID:   "user-1",
		Status:   core.StatusProcessing,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Resubmitted)
}

func TestRecoverPending_MissingFileFails(t *testing.T) {
	f := newPipelineFixture(t, nil)

	persistRecord(t, f, &core.DocumentRecord{
		ID:       "doc-1",
		FilePath: "/gone/doc-1.txt",
		DocType:  core.DocTypeText,
		UserID:   "user-1",
		Status:   core.StatusProcessing,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	record, err := f.repo.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "not found")
}

func TestRecoverPending_URLReimport(t *testing.T) {
	var reimported []string
	importer := func(ctx context.Context, record *core.DocumentRecord) error {
		reimported = append(reimported, record.SourceURL)
		return nil
	}

	f := newPipelineFixture(t, nil, WithURLImporter(importer))

	persistRecord(t, f, &core.DocumentRecord{
		ID:        "doc-1",
		DocType:   core.DocTypeURL,
		SourceURL: "https://example.com/page",
		UserID:    "user-1",
		Status:    core.StatusProcessing,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reimported)
	assert.Equal(t, []string{"https://example.com/page"}, reimported)
}

func TestRecoverPending_URLReimportFailure(t *testing.T) {
	importer := func(ctx context.Context, record *core.DocumentRecord) error {
		return errors.New("fetch failed")
	}
	f := newPipelineFixture(t, nil, WithURLImporter(importer))

	persistRecord(t, f, &core.DocumentRecord{
		ID:        "doc-1",
		DocType:   core.DocTypeURL,
		SourceURL: "https://example.com/page",
		Status:    core.StatusProcessing,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestRecoverPending_Idempotent(t *testing.T) {
	f := newPipelineFixture(t, nil)

	persistRecord(t, f, &core.DocumentRecord{
		ID:      "doc-done",
		DocType: core.DocTypeText,
		Status:  core.StatusCompleted,
	})
	persistRecord(t, f, &core.DocumentRecord{
		ID:      "doc-failed",
		DocType: core.DocTypeText,
		Status:  core.StatusFailed,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned, "recovery only acts on processing-status documents")

	// Terminal records are untouched.
	record, err := f.repo.GetDocument(context.Background(), "doc-done")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, record.Status)
}

func TestRecoverPending_OneBadRecordDoesNotAbortRest(t *testing.T) {
	uploads := t.TempDir()
	cfg := testConfig()
	cfg.UploadDir = uploads
	f := newPipelineFixture(t, cfg)

	require.NoError(t, os.WriteFile(filepath.Join(uploads, "doc-good.txt"), []byte("ok"), 0644))

	persistRecord(t, f, &core.DocumentRecord{
		ID:      "doc-bad",
		DocType: core.DocTypeText,
		Status:  core.StatusProcessing,
	})
	persistRecord(t, f, &core.DocumentRecord{
		ID:       "doc-good",
		FilePath: filepath.Join(uploads, "doc-good.txt"),
		DocType:  core.DocTypeText,
		Status:   core.StatusProcessing,
	})

	report, err := f.pipeline.RecoverPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Resubmitted)
	assert.Equal(t, 1, report.Failed)

	require.True(t, f.pipeline.WaitForDocumentCompletion("doc-good", 5*time.Second))
}
