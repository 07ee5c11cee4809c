package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ananth-NQI/wa-group-importer/internal/models"
)

// Notifier is told when an import job ends
type Notifier interface {
	NotifyCompletion(ctx context.Context, job *models.ImportJob) error
}

// MultiNotifier fans out to every notifier and joins their errors
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyCompletion(ctx context.Context, job *models.ImportJob) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyCompletion(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// completionMessage is the human readable summary sent to operators
func completionMessage(job *models.ImportJob) string {
	switch job.Status {
	case models.ImportStatusCancelled:
		return fmt.Sprintf("🛑 Import into %s cancelled after %d of %d numbers: %d added, %d failed.",
			job.GroupName, job.Current, job.Total, job.Success, job.Failed)
	case models.ImportStatusAborted:
		return fmt.Sprintf("❌ Import into %s aborted after %d of %d numbers: %s",
			job.GroupName, job.Current, job.Total, job.Error)
	default:
		return fmt.Sprintf("✅ Import into %s finished: %d added, %d failed of %d.",
			job.GroupName, job.Success, job.Failed, job.Total)
	}
}
