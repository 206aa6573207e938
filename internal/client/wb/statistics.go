package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ReportDetailByPeriod fetches one page of the weekly realization report.
// rrdID is the rolling resume cursor: pass 0 for the first page and the
// rrd_id of the last row of the previous page afterwards.
func (c *Client) ReportDetailByPeriod(ctx context.Context, token string, from, to time.Time, limit int, rrdID int64) ([]SaleRow, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format("2006-01-02"))
	query.Set("dateTo", to.Format("2006-01-02"))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("rrdid", strconv.FormatInt(rrdID, 10))

	raw, err := c.doRequest(ctx, http.MethodGet, c.statistics, "/api/v5/supplier/reportDetailByPeriod", token, query, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var rows []SaleRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse sales report page: %w", err)
	}
	return rows, nil
}
