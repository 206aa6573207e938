package fetch

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"wbledger/internal/client/wb"
)

// CardService resolves nm ids to vendor codes and display names. The full
// mapping is fetched once per token and cached for the lifetime of the
// process; the singleflight group guarantees at most one in-flight fetch
// per token.
type CardService struct {
	Client *wb.Client
	Logger *zap.Logger

	PageLimit int // cards per page, default 100

	mu    sync.RWMutex
	cache map[string]map[string]wb.Card
	group singleflight.Group
}

func (s *CardService) Mapping(ctx context.Context, token string) (map[string]wb.Card, error) {
	s.mu.RLock()
	cached, ok := s.cache[token]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := s.group.Do(token, func() (any, error) {
		s.mu.RLock()
		cached, ok := s.cache[token]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
		mapping, err := s.fetchAll(ctx, token)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.cache == nil {
			s.cache = make(map[string]map[string]wb.Card)
		}
		s.cache[token] = mapping
		s.mu.Unlock()
		return mapping, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]wb.Card), nil
}

func (s *CardService) fetchAll(ctx context.Context, token string) (map[string]wb.Card, error) {
	limit := s.PageLimit
	if limit <= 0 {
		limit = 100
	}
	mapping := make(map[string]wb.Card)
	cursor := wb.CardsCursor{Limit: limit}
	for {
		var page *wb.CardsPage
		exhausted, err := retryRateLimited(ctx, nil, func() error {
			p, err := s.Client.CardsList(ctx, token, cursor)
			page = p
			return err
		})
		if exhausted {
			if s.Logger != nil {
				s.Logger.Warn("card list rate limited, returning partial mapping",
					zap.Int("cards", len(mapping)))
			}
			return mapping, nil
		}
		if err != nil {
			return nil, err
		}
		for _, card := range page.Cards {
			mapping[strconv.FormatInt(card.NmID, 10)] = card
		}
		if page.Cursor.Total < limit || len(page.Cards) == 0 {
			break
		}
		cursor.UpdatedAt = page.Cursor.UpdatedAt
		cursor.NmID = page.Cursor.NmID
		if err := sleepCtx(ctx, 200*time.Millisecond); err != nil {
			return nil, err
		}
	}
	if s.Logger != nil {
		s.Logger.Info("card mapping fetched", zap.Int("cards", len(mapping)))
	}
	return mapping, nil
}
