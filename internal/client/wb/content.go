package wb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type cardsListRequest struct {
	Settings struct {
		Cursor CardsCursor `json:"cursor"`
		Filter struct {
			WithPhoto int `json:"withPhoto"`
		} `json:"filter"`
	} `json:"settings"`
}

// CardsList fetches one page of the seller's product cards, keyed by the
// compound (updatedAt, nmID) cursor.
func (c *Client) CardsList(ctx context.Context, token string, cursor CardsCursor) (*CardsPage, error) {
	var payload cardsListRequest
	payload.Settings.Cursor = cursor
	payload.Settings.Filter.WithPhoto = -1

	raw, err := c.doRequest(ctx, http.MethodPost, c.content, "/content/v2/get/cards/list", token, nil, payload)
	if err != nil {
		return nil, err
	}
	var page CardsPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to parse cards page: %w", err)
	}
	return &page, nil
}
