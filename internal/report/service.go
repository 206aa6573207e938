package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wbledger/internal/client/wb"
	"wbledger/internal/fetch"
)

// reconcileEpsilon is the tolerance when cross-checking the acceptance
// report's declared total against the sales ledger's acceptance deductions.
var reconcileEpsilon = decimal.NewFromFloat(0.01)

// QuotaCharger decrements the user's remaining-report counter. It is
// invoked strictly after the artifact has been written, never on a failure
// path, so users are not charged for failed reports.
type QuotaCharger interface {
	Charge(ctx context.Context, userID int64) error
}

// Request is the full input contract for one report generation.
type Request struct {
	Token     string
	Period    string // DD.MM.YYYY-DD.MM.YYYY
	DocNums   string // space-separated UPD numbers, "123" or empty for none
	UserID    int64
	StoreID   int64
	StoreName string
}

type Result struct {
	Path     string
	Products int
}

// Service runs the fetch-merge-render pipeline for one report request.
// Each invocation is fully isolated; the only shared state is the HTTP
// connection pool and the credential-keyed card cache.
type Service struct {
	Sales      *fetch.SalesService
	Cards      *fetch.CardService
	Storage    *fetch.StorageService
	Acceptance *fetch.AcceptanceService
	Adverts    *fetch.AdvertService
	Logger     *zap.Logger
	OutputDir  string
	Quota      QuotaCharger
}

// ParsePeriod converts the collaborator's DD.MM.YYYY-DD.MM.YYYY period
// string into a start/end date pair.
func ParsePeriod(period string) (time.Time, time.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(period), "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q, want DD.MM.YYYY-DD.MM.YYYY", period)
	}
	from, err := time.Parse("02.01.2006", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period start: %w", err)
	}
	to, err := time.Parse("02.01.2006", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period end: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("period end %s precedes start %s", parts[1], parts[0])
	}
	return from, to, nil
}

func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	from, to, err := ParsePeriod(req.Period)
	if err != nil {
		return Result{}, err
	}

	// The four sources are independent; fan them out and join before the
	// merge. A failed sibling cancels the rest.
	var (
		sales      []wb.SaleRow
		storage    map[string]fetch.StorageTotal
		acceptance fetch.AcceptanceResult
		adverts    map[string]fetch.AdvertTotal
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := s.Sales.Fetch(groupCtx, req.Token, from, to)
		sales = rows
		return err
	})
	group.Go(func() error {
		totals, err := s.Storage.Fetch(groupCtx, req.Token, from, to)
		storage = totals
		return err
	})
	group.Go(func() error {
		result, err := s.Acceptance.Fetch(groupCtx, req.Token, from, to)
		acceptance = result
		return err
	})
	group.Go(func() error {
		totals, err := s.Adverts.Fetch(groupCtx, req.Token, req.DocNums, to)
		adverts = totals
		return err
	})
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	acceptance = s.reconcileAcceptance(ctx, req.Token, from, to, sales, acceptance)

	cards, err := s.Cards.Mapping(ctx, req.Token)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("card mapping unavailable, vendor codes fall back to product ids", zap.Error(err))
		}
		cards = nil
	}

	rows := BuildLedger(Sources{
		Sales:      sales,
		Cards:      cards,
		Storage:    storage,
		Acceptance: acceptance,
		Adverts:    adverts,
	})

	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.OutputDir, fmt.Sprintf("%d_%d_%s.xlsx", req.UserID, req.StoreID, from.Format("02.01.2006")))
	meta := WorkbookMeta{StoreName: req.StoreName, PeriodFrom: from, PeriodTo: to}
	if err := WriteWorkbook(path, meta, rows); err != nil {
		return Result{}, fmt.Errorf("failed to write workbook: %w", err)
	}

	if s.Quota != nil {
		if err := s.Quota.Charge(ctx, req.UserID); err != nil && s.Logger != nil {
			s.Logger.Warn("quota charge failed after successful report", zap.Int64("user_id", req.UserID), zap.Error(err))
		}
	}
	if s.Logger != nil {
		s.Logger.Info("report generated",
			zap.Int64("user_id", req.UserID),
			zap.Int64("store_id", req.StoreID),
			zap.Int("products", len(rows)),
			zap.String("path", path))
	}
	return Result{Path: path, Products: len(rows)}, nil
}

// reconcileAcceptance cross-checks the acceptance report's declared total
// against the acceptance deductions in the raw sales feed. A mismatch
// usually means acceptance events straddled the period start, so the report
// is re-fetched with the start widened by two days. The re-fetch is best
// effort: on failure the original (possibly incomplete) data stands.
func (s *Service) reconcileAcceptance(ctx context.Context, token string, from, to time.Time, sales []wb.SaleRow, acceptance fetch.AcceptanceResult) fetch.AcceptanceResult {
	declared := AcceptanceDeductionTotal(sales)
	if declared.Sub(acceptance.Total).Abs().LessThanOrEqual(reconcileEpsilon) {
		return acceptance
	}
	if s.Logger != nil {
		s.Logger.Info("acceptance totals disagree, re-fetching with widened window",
			zap.String("sales_total", declared.String()),
			zap.String("report_total", acceptance.Total.String()))
	}
	widened, err := s.Acceptance.Fetch(ctx, token, from.AddDate(0, 0, -2), to)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("acceptance re-fetch failed, keeping original data", zap.Error(err))
		}
		return acceptance
	}
	return widened
}
