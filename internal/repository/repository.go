package repository

import (
	"context"
	"time"

	"wbledger/internal/models"
)

// Repository persists report-run history. The core pipeline itself keeps
// nothing; this is operational bookkeeping for the service around it.
type Repository interface {
	CreateReportRun(ctx context.Context, run *models.ReportRun) error
	UpdateReportRun(ctx context.Context, run *models.ReportRun) error
	GetReportRun(ctx context.Context, id uint) (*models.ReportRun, error)
	ListReportRuns(ctx context.Context, userID int64, limit int) ([]models.ReportRun, error)
	ListExpiredRuns(ctx context.Context, finishedBefore time.Time) ([]models.ReportRun, error)
}
