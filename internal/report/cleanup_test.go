package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wbledger/internal/models"
)

type stubRepo struct {
	expired []models.ReportRun
	updated []models.ReportRun
}

func (r *stubRepo) CreateReportRun(ctx context.Context, run *models.ReportRun) error { return nil }
func (r *stubRepo) UpdateReportRun(ctx context.Context, run *models.ReportRun) error {
	r.updated = append(r.updated, *run)
	return nil
}
func (r *stubRepo) GetReportRun(ctx context.Context, id uint) (*models.ReportRun, error) {
	return nil, nil
}
func (r *stubRepo) ListReportRuns(ctx context.Context, userID int64, limit int) ([]models.ReportRun, error) {
	return nil, nil
}
func (r *stubRepo) ListExpiredRuns(ctx context.Context, finishedBefore time.Time) ([]models.ReportRun, error) {
	return r.expired, nil
}

func TestCleanup_PurgesExpiredArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1_1_05.01.2026.xlsx")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	repo := &stubRepo{expired: []models.ReportRun{
		{ID: 1, FilePath: path, Status: models.RunStatusDone},
		{ID: 2, FilePath: filepath.Join(dir, "already-gone.xlsx"), Status: models.RunStatusDone},
	}}
	svc := &CleanupService{Repo: repo}

	purged, err := svc.Purge(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if purged != 2 {
		t.Fatalf("purged=%d want 2, a missing file still counts", purged)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("artifact still on disk")
	}
	if len(repo.updated) != 2 {
		t.Fatalf("updated=%d runs want 2", len(repo.updated))
	}
	for _, run := range repo.updated {
		if run.Status != models.RunStatusPurged {
			t.Fatalf("run %d status=%q want purged", run.ID, run.Status)
		}
	}
}

func TestCleanup_NothingExpired(t *testing.T) {
	repo := &stubRepo{}
	svc := &CleanupService{Repo: repo}
	purged, err := svc.Purge(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if purged != 0 || len(repo.updated) != 0 {
		t.Fatalf("purged=%d updated=%d", purged, len(repo.updated))
	}
}
