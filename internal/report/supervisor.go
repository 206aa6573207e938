package report

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wbledger/internal/client/wb"
)

// User-facing failure texts, displayed verbatim by the collaborator. Both
// reassure the user that no generation was deducted.
var (
	ErrServersUnavailable = errors.New("Сервера Wildberries не отвечают, попробуйте позже. Генерация отчета не списана")
	ErrTokenRejected      = errors.New("Невалидный токен или не хватает прав, пересоздайте магазин с новым токеном. Генерация отчета не списана")
)

var progressFrames = []string{".", "..", "..."}

type GenerateFunc func(ctx context.Context, req Request) (Result, error)

// Supervisor runs the pipeline as a cancellable unit of work with a
// heartbeat: one progress frame per tick, a fixed tick budget, and
// translation of transport failures into the user-facing taxonomy. The
// cancellation policy lives here; the progress side effect is whatever
// callback the collaborator passes in.
type Supervisor struct {
	Generate GenerateFunc
	Logger   *zap.Logger

	TickInterval time.Duration // default 1s
	MaxTicks     int           // default 480 (~8 minutes)
}

// Run executes the pipeline under supervision. progress receives one
// updating frame per tick and an empty string once the indicator should be
// cleared, success or not.
func (s *Supervisor) Run(ctx context.Context, req Request, progress func(text string)) (Result, error) {
	interval := s.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	maxTicks := s.MaxTicks
	if maxTicks <= 0 {
		maxTicks = 480
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.Generate(runCtx, req)
		done <- outcome{result: result, err: err}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	clearProgress := func() {
		if progress != nil {
			progress("")
		}
	}

	ticks := 0
	for {
		select {
		case out := <-done:
			clearProgress()
			if out.err != nil {
				return Result{}, s.classify(out.err)
			}
			return out.result, nil
		case <-ticker.C:
			ticks++
			if ticks >= maxTicks {
				cancel()
				<-done
				clearProgress()
				if s.Logger != nil {
					s.Logger.Warn("report generation exceeded its budget, cancelled",
						zap.Int64("user_id", req.UserID), zap.Int("ticks", ticks))
				}
				return Result{}, ErrServersUnavailable
			}
			if progress != nil {
				progress("Формирую отчет" + progressFrames[ticks%len(progressFrames)])
			}
		case <-ctx.Done():
			cancel()
			<-done
			clearProgress()
			return Result{}, ctx.Err()
		}
	}
}

func (s *Supervisor) classify(err error) error {
	var apiErr *wb.APIError
	if errors.As(err, &apiErr) && apiErr.Status != http.StatusTooManyRequests {
		if s.Logger != nil {
			s.Logger.Warn("marketplace rejected the request", zap.Int("status", apiErr.Status))
		}
		return ErrTokenRejected
	}
	return err
}
