package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ListUPDDocuments lists the advertising billing documents issued within
// [from, to].
func (c *Client) ListUPDDocuments(ctx context.Context, token string, from, to time.Time) ([]UPDDocument, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))
	raw, err := c.doRequest(ctx, http.MethodGet, c.advert, "/adv/v1/upd", token, query, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var docs []UPDDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse upd documents: %w", err)
	}
	return docs, nil
}

type fullStatsRequest struct {
	ID       int64 `json:"id"`
	Interval struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
	} `json:"interval"`
}

// CampaignFullStats fetches per-day, per-product breakdowns for the given
// campaigns over [from, to].
func (c *Client) CampaignFullStats(ctx context.Context, token string, campaignIDs []int64, from, to time.Time) ([]CampaignStats, error) {
	if len(campaignIDs) == 0 {
		return nil, nil
	}
	payload := make([]fullStatsRequest, 0, len(campaignIDs))
	for _, id := range campaignIDs {
		req := fullStatsRequest{ID: id}
		req.Interval.Begin = from.Format("2006-01-02")
		req.Interval.End = to.Format("2006-01-02")
		payload = append(payload, req)
	}
	raw, err := c.doRequest(ctx, http.MethodPost, c.advert, "/adv/v2/fullstats", token, nil, payload)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var stats []CampaignStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse campaign stats: %w", err)
	}
	return stats, nil
}
