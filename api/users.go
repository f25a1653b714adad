package api

import "context"

// Me fetches the authenticated caller's own profile record. This is the one
// route whose 404 the pipeline treats as credential invalidation.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, currentUserPath, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteMe deletes the caller's account on the backend. The caller is
// expected to clear the local credential afterwards.
func (c *Client) DeleteMe(ctx context.Context) error {
	return c.del(ctx, currentUserPath)
}
