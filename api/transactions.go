package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Transactions lists transactions matching the filter, newest first.
func (c *Client) Transactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	query := url.Values{}
	if !f.From.IsZero() {
		query.Set("from", f.From.Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query.Set("to", f.To.Format(time.RFC3339))
	}
	if f.AccountID != 0 {
		query.Set("account_id", strconv.FormatInt(f.AccountID, 10))
	}
	if f.CategoryID != 0 {
		query.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Limit != 0 {
		query.Set("limit", strconv.Itoa(f.Limit))
	}

	var txs []Transaction
	if err := c.get(ctx, "/transactions", query, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// CreateTransaction records a new transaction.
func (c *Client) CreateTransaction(ctx context.Context, draft TransactionDraft) (*Transaction, error) {
	var tx Transaction
	if err := c.post(ctx, "/transactions", draft, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateTransaction replaces an existing transaction's client-editable
// fields.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, draft TransactionDraft) (*Transaction, error) {
	var tx Transaction
	if err := c.put(ctx, fmt.Sprintf("/transactions/%d", id), draft, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// DeleteTransaction removes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.del(ctx, fmt.Sprintf("/transactions/%d", id))
}
