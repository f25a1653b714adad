package api

import (
	"context"
	"fmt"
)

// Debts lists the user's tracked debts, settled ones included.
func (c *Client) Debts(ctx context.Context) ([]Debt, error) {
	var debts []Debt
	if err := c.get(ctx, "/debts", nil, &debts); err != nil {
		return nil, err
	}
	return debts, nil
}

// CreateDebt records a new debt.
func (c *Client) CreateDebt(ctx context.Context, draft DebtDraft) (*Debt, error) {
	var d Debt
	if err := c.post(ctx, "/debts", draft, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SettleDebt marks a debt as settled.
func (c *Client) SettleDebt(ctx context.Context, id int64) (*Debt, error) {
	var d Debt
	if err := c.post(ctx, fmt.Sprintf("/debts/%d/settle", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
