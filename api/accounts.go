package api

import "context"

// Accounts lists the user's money accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.get(ctx, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Categories lists the user's transaction categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.get(ctx, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
