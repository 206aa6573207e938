package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
	RunStatusPurged  = "purged"
)

// ReportRun is one invocation of the report pipeline: who asked, for which
// store and period, how it ended and where the artifact landed.
type ReportRun struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     int64          `gorm:"index" json:"user_id"`
	StoreID    int64          `gorm:"index" json:"store_id"`
	StoreName  string         `gorm:"type:text" json:"store_name"`
	PeriodFrom time.Time      `json:"period_from"`
	PeriodTo   time.Time      `json:"period_to"`
	DocNums    string         `gorm:"type:text" json:"doc_nums"`
	Status     string         `gorm:"index;type:text" json:"status"`
	FilePath   string         `gorm:"type:text" json:"file_path"`
	Error      *string        `gorm:"type:text" json:"error,omitempty"`
	StatsJSON  datatypes.JSON `gorm:"type:jsonb" json:"stats,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

func (ReportRun) TableName() string {
	return "report_runs"
}
