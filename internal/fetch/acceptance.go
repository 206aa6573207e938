package fetch

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wbledger/internal/client/wb"
)

// AcceptanceResult holds the per-product paid-acceptance fees plus the
// report's declared grand total, which the merge step reconciles against
// the sales ledger.
type AcceptanceResult struct {
	ByProduct map[string]decimal.Decimal
	Total     decimal.Decimal
}

// AcceptanceService drives the paid-acceptance report job. Same state
// machine as the storage report; the poll budget is bounded symmetrically
// so a stuck job cannot spin forever under the supervisor.
type AcceptanceService struct {
	Client *wb.Client
	Logger *zap.Logger

	Backoff      []time.Duration
	PollInterval time.Duration
	MaxPolls     int
}

func (s *AcceptanceService) Fetch(ctx context.Context, token string, from, to time.Time) (AcceptanceResult, error) {
	result := AcceptanceResult{ByProduct: map[string]decimal.Decimal{}}
	rows, err := runReportTask(ctx, s.Logger, "acceptance", taskFuncs[wb.AcceptanceRow]{
		backoff:      s.Backoff,
		pollInterval: s.PollInterval,
		maxPolls:     s.MaxPolls,
		create: func() (string, error) {
			return s.Client.CreateAcceptanceTask(ctx, token, from, to)
		},
		status: func(taskID string) (string, error) {
			return s.Client.AcceptanceTaskStatus(ctx, token, taskID)
		},
		download: func(taskID string) ([]wb.AcceptanceRow, error) {
			return s.Client.DownloadAcceptanceTask(ctx, token, taskID)
		},
	})
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		key := strconv.FormatInt(row.NmID, 10)
		amount := decimal.NewFromFloat(row.Total)
		result.ByProduct[key] = result.ByProduct[key].Add(amount)
		result.Total = result.Total.Add(amount)
	}
	return result, nil
}
