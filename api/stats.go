package api

import (
	"context"
	"net/url"
	"time"
)

// Stats fetches the server-computed spending summary for a period.
func (c *Client) Stats(ctx context.Context, f StatsFilter) (*StatsSummary, error) {
	query := url.Values{}
	if !f.From.IsZero() {
		query.Set("from", f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query.Set("to", f.To.Format(time.RFC3339))
	}
	if f.GroupBy != "" {
		query.Set("group_by", f.GroupBy)
	}

	var summary StatsSummary
	if err := c.get(ctx, "/stats", query, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

type parseTextRequest struct {
	Text string `json:"text"`
}

// ParseText asks the backend to turn a free-text description like
// "coffee 4.50" into a transaction draft. Parsing is entirely server-side.
func (c *Client) ParseText(ctx context.Context, text string) (*ParsedTransaction, error) {
	var parsed ParsedTransaction
	if err := c.post(ctx, "/parse/text", parseTextRequest{Text: text}, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}
