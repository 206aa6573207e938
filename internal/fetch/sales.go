package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wbledger/internal/client/wb"
)

// SalesService pulls the full weekly realization report page by page using
// the rolling rrdid cursor.
type SalesService struct {
	Client *wb.Client
	Logger *zap.Logger

	PageLimit int           // rows per page, default 100000
	PageDelay time.Duration // pause between pages, default 1s
}

func (s *SalesService) Fetch(ctx context.Context, token string, from, to time.Time) ([]wb.SaleRow, error) {
	limit := s.PageLimit
	if limit <= 0 {
		limit = 100000
	}
	delay := s.PageDelay
	if delay <= 0 {
		delay = time.Second
	}

	var all []wb.SaleRow
	var rrdID int64
	for {
		var page []wb.SaleRow
		exhausted, err := retryRateLimited(ctx, nil, func() error {
			rows, err := s.Client.ReportDetailByPeriod(ctx, token, from, to, limit, rrdID)
			page = rows
			return err
		})
		if exhausted {
			if s.Logger != nil {
				s.Logger.Warn("sales report rate limited, returning partial data",
					zap.Int("rows", len(all)))
			}
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		next := page[len(page)-1].RrdID
		if next == rrdID {
			break
		}
		rrdID = next
		if len(page) < limit {
			break
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}
	if s.Logger != nil {
		s.Logger.Info("sales report fetched", zap.Int("rows", len(all)))
	}
	return all, nil
}
