package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/adamsih300u/bastion/core"
)

// RecoveryReport summarizes one recovery pass.
type RecoveryReport struct {
	Scanned     int
	Resubmitted int
	Reimported  int
	Failed      int
}

type recoveryOutcome int

const (
	recoveryFailed recoveryOutcome = iota
	recoveryResubmitted
	recoveryReimported
)

// RecoverPending scans the repository for documents left mid-flight by
// a previous process and re-submits them. Only documents persisted as
// processing are touched, so re-running recovery is a no-op for
// completed or failed documents. Each document recovers independently;
// one bad record never aborts the rest. Intended to run as a
// background task so it cannot block readiness.
func (p *Pipeline) RecoverPending(ctx context.Context) (*RecoveryReport, error) {
	pending, err := p.repo.GetDocumentsByStatus(ctx, core.StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for pending documents: %w", err)
	}

	report := &RecoveryReport{Scanned: len(pending)}
	if len(pending) == 0 {
		return report, nil
	}

	p.logger.Info("recovering interrupted documents", "count", len(pending))

	outcomes := make([]recoveryOutcome, len(pending))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.config.RecoveryConcurrency)
	for i, record := range pending {
		i, record := i, record
		group.Go(func() error {
			outcomes[i] = p.recoverDocument(gctx, record)
			return nil
		})
	}
	group.Wait()

	for _, outcome := range outcomes {
		switch outcome {
		case recoveryResubmitted:
			report.Resubmitted++
		case recoveryReimported:
			report.Reimported++
		default:
			report.Failed++
		}
	}

	p.logger.Info("recovery finished",
		"scanned", report.Scanned,
		"resubmitted", report.Resubmitted,
		"reimported", report.Reimported,
		"failed", report.Failed)
	return report, nil
}

// recoverDocument recovers a single record, trapping panics so one
// corrupt record cannot take down the pass.
func (p *Pipeline) recoverDocument(ctx context.Context, record *core.DocumentRecord) (outcome recoveryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic recovering document", "document_id", record.ID, "panic", r)
			p.markRecoveryFailed(ctx, record.ID, fmt.Sprintf("recovery panicked: %v", r))
			outcome = recoveryFailed
		}
	}()

	if path, ok := p.locateUpload(record); ok {
		if p.Submit(record.ID, path, record.DocType, record.UserID, 0) {
			p.logger.Info("resubmitted interrupted document", "document_id", record.ID, "path", path)
			return recoveryResubmitted
		}
		p.markRecoveryFailed(ctx, record.ID, "resubmission rejected")
		return recoveryFailed
	}

	if record.SourceURL != "" && p.urlImporter != nil {
		if err := p.urlImporter(ctx, record); err != nil {
			p.logger.Error("failed to re-import document from URL",
				"document_id", record.ID, "url", record.SourceURL, "error", err)
			p.markRecoveryFailed(ctx, record.ID, fmt.Sprintf("url re-import failed: %v", err))
			return recoveryFailed
		}
		p.logger.Info("re-imported document from URL", "document_id", record.ID, "url", record.SourceURL)
		return recoveryReimported
	}

	p.markRecoveryFailed(ctx, record.ID, "original upload not found")
	return recoveryFailed
}

// locateUpload finds the original uploaded file for a record: the
// recorded path first, then the deterministic upload-directory naming
// convention <uploadDir>/<documentID>.<docType>.
func (p *Pipeline) locateUpload(record *core.DocumentRecord) (string, bool) {
	if record.FilePath != "" {
		if _, err := os.Stat(record.FilePath); err == nil {
			return record.FilePath, true
		}
	}
	if p.config.UploadDir != "" {
		candidate := filepath.Join(p.config.UploadDir,
			fmt.Sprintf("%s.%s", record.ID, record.DocType))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func (p *Pipeline) markRecoveryFailed(ctx context.Context, documentID, reason string) {
	p.documents.Fail(documentID, fmt.Errorf("%s", reason))
	if err := p.repo.UpdateStatus(ctx, documentID, core.StatusFailed, reason); err != nil {
		p.logger.Error("failed to persist recovery failure",
			"document_id", documentID, "error", err)
	}
}
