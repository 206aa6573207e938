package report

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"wbledger/internal/models"
	"wbledger/internal/repository"
)

// CleanupService deletes report artifacts past their retention and marks
// the runs purged. Scheduled from the cron runner.
type CleanupService struct {
	Repo      repository.Repository
	Logger    *zap.Logger
	Retention time.Duration // default 72h
}

func (s *CleanupService) Purge(ctx context.Context) (int, error) {
	retention := s.Retention
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-retention)
	runs, err := s.Repo.ListExpiredRuns(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	purged := 0
	for i := range runs {
		run := runs[i]
		if run.FilePath != "" {
			if err := os.Remove(run.FilePath); err != nil && !os.IsNotExist(err) {
				if s.Logger != nil {
					s.Logger.Warn("failed to remove expired artifact",
						zap.String("path", run.FilePath), zap.Error(err))
				}
				continue
			}
		}
		run.Status = models.RunStatusPurged
		if err := s.Repo.UpdateReportRun(ctx, &run); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}
