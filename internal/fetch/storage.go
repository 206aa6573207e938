package fetch

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wbledger/internal/client/wb"
)

// StorageTotal is the per-product paid-storage cost over the period,
// enriched with the card mapping.
type StorageTotal struct {
	Total      decimal.Decimal
	VendorCode string
	Name       string
}

// StorageService drives the paid-storage report job: create the task, poll
// it to completion, download the artifact. Every phase tolerates rate-limit
// exhaustion by contributing nothing to the report.
type StorageService struct {
	Client *wb.Client
	Cards  *CardService
	Logger *zap.Logger

	Backoff      []time.Duration // 429 backoff for create/download, default {5,10,20,40,80}s
	PollInterval time.Duration   // default 5s
	MaxPolls     int             // default 12
}

func (s *StorageService) Fetch(ctx context.Context, token string, from, to time.Time) (map[string]StorageTotal, error) {
	rows, err := runReportTask(ctx, s.Logger, "paid_storage", taskFuncs[wb.StorageRow]{
		backoff:      s.Backoff,
		pollInterval: s.PollInterval,
		maxPolls:     s.MaxPolls,
		create: func() (string, error) {
			return s.Client.CreatePaidStorageTask(ctx, token, from, to)
		},
		status: func(taskID string) (string, error) {
			return s.Client.PaidStorageTaskStatus(ctx, token, taskID)
		},
		download: func(taskID string) ([]wb.StorageRow, error) {
			return s.Client.DownloadPaidStorageTask(ctx, token, taskID)
		},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return map[string]StorageTotal{}, nil
	}

	totals := make(map[string]decimal.Decimal)
	for _, row := range rows {
		key := strconv.FormatInt(row.NmID, 10)
		totals[key] = totals[key].Add(decimal.NewFromFloat(row.WarehousePrice))
	}

	var cards map[string]wb.Card
	if s.Cards != nil {
		cards, err = s.Cards.Mapping(ctx, token)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("card mapping unavailable for storage report", zap.Error(err))
			}
			cards = nil
		}
	}

	out := make(map[string]StorageTotal, len(totals))
	for key, total := range totals {
		entry := StorageTotal{Total: total.Round(2), VendorCode: key}
		if card, ok := cards[key]; ok {
			if card.VendorCode != "" {
				entry.VendorCode = card.VendorCode
			}
			entry.Name = card.Title
		}
		out[key] = entry
	}
	return out, nil
}

// taskFuncs parameterizes the create/poll/download state machine shared by
// the storage and acceptance reports.
type taskFuncs[T any] struct {
	backoff      []time.Duration
	pollInterval time.Duration
	maxPolls     int
	create       func() (string, error)
	status       func(taskID string) (string, error)
	download     func(taskID string) ([]T, error)
}

func runReportTask[T any](ctx context.Context, logger *zap.Logger, name string, funcs taskFuncs[T]) ([]T, error) {
	pollInterval := funcs.pollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	maxPolls := funcs.maxPolls
	if maxPolls <= 0 {
		maxPolls = 12
	}

	var taskID string
	exhausted, err := retryRateLimited(ctx, funcs.backoff, func() error {
		id, err := funcs.create()
		taskID = id
		return err
	})
	if exhausted {
		if logger != nil {
			logger.Warn("report task creation rate limited, skipping source", zap.String("report", name))
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	done := false
	for polls := 0; polls < maxPolls; {
		if err := sleepCtx(ctx, pollInterval); err != nil {
			return nil, err
		}
		status, err := funcs.status(taskID)
		if err != nil {
			if wb.IsRateLimited(err) {
				// Rate-limited polls do not count against the budget.
				continue
			}
			return nil, err
		}
		polls++
		if status == "done" {
			done = true
			break
		}
	}
	if !done {
		if logger != nil {
			logger.Warn("report task did not finish in time, skipping source",
				zap.String("report", name), zap.String("task_id", taskID))
		}
		return nil, nil
	}

	var rows []T
	exhausted, err = retryRateLimited(ctx, funcs.backoff, func() error {
		r, err := funcs.download(taskID)
		rows = r
		return err
	})
	if exhausted {
		if logger != nil {
			logger.Warn("report task download rate limited, skipping source", zap.String("report", name))
		}
		return nil, nil
	}
	if err != nil {
		if wb.IsStatusError(err) || ctx.Err() != nil {
			return nil, err
		}
		// Malformed artifact: treat as empty, the report tolerates it.
		if logger != nil {
			logger.Warn("report task artifact unreadable, skipping source",
				zap.String("report", name), zap.Error(err))
		}
		return nil, nil
	}
	return rows, nil
}
