package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wbledger/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateReportRun(ctx context.Context, run *models.ReportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *Repository) UpdateReportRun(ctx context.Context, run *models.ReportRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *Repository) GetReportRun(ctx context.Context, id uint) (*models.ReportRun, error) {
	var run models.ReportRun
	err := r.db.WithContext(ctx).First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repository) ListReportRuns(ctx context.Context, userID int64, limit int) ([]models.ReportRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Model(&models.ReportRun{}).Order("id DESC").Limit(limit)
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	var runs []models.ReportRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *Repository) ListExpiredRuns(ctx context.Context, finishedBefore time.Time) ([]models.ReportRun, error) {
	var runs []models.ReportRun
	err := r.db.WithContext(ctx).
		Where("status = ? AND finished_at IS NOT NULL AND finished_at < ?", models.RunStatusDone, finishedBefore).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
