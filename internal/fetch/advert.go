package fetch

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wbledger/internal/client/wb"
)

// advertDocPlaceholder is what sellers are told to enter when they have no
// advertising documents to reconcile.
const advertDocPlaceholder = "123"

const fullStatsBatchSize = 100

// AdvertTotal is the apportioned advertising spend for one product.
type AdvertTotal struct {
	Spend decimal.Decimal
	Name  string
}

// AdvertService resolves advertising billing documents to campaigns and
// apportions each campaign's declared total across its products. The
// declared ("fact") total and the raw per-product breakdown can disagree;
// a per-campaign coefficient scales the breakdown so the apportioned spend
// sums back to the bill.
type AdvertService struct {
	Client *wb.Client
	Logger *zap.Logger

	LookbackDays int // document listing window before the period end, default 30
}

func (s *AdvertService) Fetch(ctx context.Context, token, docNums string, periodEnd time.Time) (map[string]AdvertTotal, error) {
	out := make(map[string]AdvertTotal)
	wanted := parseDocNums(docNums)
	if len(wanted) == 0 {
		return out, nil
	}

	lookback := s.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	from := periodEnd.AddDate(0, 0, -lookback)

	var docs []wb.UPDDocument
	exhausted, err := retryRateLimited(ctx, nil, func() error {
		d, err := s.Client.ListUPDDocuments(ctx, token, from, periodEnd)
		docs = d
		return err
	})
	if exhausted {
		if s.Logger != nil {
			s.Logger.Warn("upd listing rate limited, skipping advertising")
		}
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	factByCampaign := make(map[int64]decimal.Decimal)
	for _, doc := range docs {
		if _, ok := wanted[doc.UpdNum]; !ok {
			continue
		}
		factByCampaign[doc.AdvertID] = factByCampaign[doc.AdvertID].Add(decimal.NewFromFloat(doc.UpdSum))
	}
	if len(factByCampaign) == 0 {
		return out, nil
	}

	campaignIDs := make([]int64, 0, len(factByCampaign))
	for id := range factByCampaign {
		campaignIDs = append(campaignIDs, id)
	}

	for start := 0; start < len(campaignIDs); start += fullStatsBatchSize {
		end := start + fullStatsBatchSize
		if end > len(campaignIDs) {
			end = len(campaignIDs)
		}
		var stats []wb.CampaignStats
		exhausted, err := retryRateLimited(ctx, nil, func() error {
			st, err := s.Client.CampaignFullStats(ctx, token, campaignIDs[start:end], from, periodEnd)
			stats = st
			return err
		})
		if exhausted {
			if s.Logger != nil {
				s.Logger.Warn("campaign fullstats rate limited, skipping remaining campaigns")
			}
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		for _, campaign := range stats {
			s.apportion(campaign, factByCampaign[campaign.AdvertID], out)
		}
	}
	return out, nil
}

func (s *AdvertService) apportion(campaign wb.CampaignStats, fact decimal.Decimal, out map[string]AdvertTotal) {
	raw := decimal.Zero
	for _, day := range campaign.Days {
		for _, app := range day.Apps {
			for _, product := range app.Nm {
				raw = raw.Add(decimal.NewFromFloat(product.Sum))
			}
		}
	}
	coefficient := decimal.NewFromInt(1)
	if !raw.IsZero() {
		coefficient = fact.Div(raw)
	}
	for _, day := range campaign.Days {
		for _, app := range day.Apps {
			for _, product := range app.Nm {
				key := strconv.FormatInt(product.NmID, 10)
				entry := out[key]
				entry.Spend = entry.Spend.Add(decimal.NewFromFloat(product.Sum).Mul(coefficient))
				if entry.Name == "" {
					entry.Name = product.Name
				}
				out[key] = entry
			}
		}
	}
}

// parseDocNums parses the space-separated document numbers the seller
// entered. An empty string or the bare placeholder means "no documents".
func parseDocNums(raw string) map[int64]struct{} {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == advertDocPlaceholder {
		return nil
	}
	out := make(map[int64]struct{})
	for _, field := range strings.Fields(raw) {
		num, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		out[num] = struct{}{}
	}
	return out
}
