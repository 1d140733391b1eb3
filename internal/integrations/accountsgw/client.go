// Package accountsgw provides the client for the external account gateway.
package accountsgw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/souq-b2b/souq-b2b/internal/accounts"
)

// Client wraps interactions with the account gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListAccounts fetches every account with credit terms.
func (c *Client) ListAccounts(ctx context.Context) ([]accounts.Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("account gateway: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("account gateway returned status %d", resp.StatusCode)
	}

	var list []accounts.Account
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("account gateway: decode accounts: %w", err)
	}
	return list, nil
}
