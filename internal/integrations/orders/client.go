// Package orders provides the client for the external order gateway.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRejected indicates the gateway answered but refused the order.
var ErrRejected = errors.New("order rejected by gateway")

// Customer identifies the ordering account on the wire.
type Customer struct {
	Company  string `json:"company"`
	Employee string `json:"employee"`
}

// Item is one order line on the wire.
type Item struct {
	Product     string          `json:"product,omitempty"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	VATRate     decimal.Decimal `json:"vatRate"`
}

// Pricing is the order's pricing breakdown on the wire.
type Pricing struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	TotalVAT     decimal.Decimal `json:"totalVat"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
}

// Payment carries the chosen method; status is always pending on creation.
type Payment struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

// CreateOrderRequest is the order-creation payload.
type CreateOrderRequest struct {
	Customer               Customer `json:"customer"`
	Items                  []Item   `json:"items"`
	Pricing                Pricing  `json:"pricing"`
	Payment                Payment  `json:"payment"`
	AccountantReviewStatus string   `json:"accountantReviewStatus"`
}

type createOrderResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Client wraps interactions with the order gateway.
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

// CreateOrder submits the order. Callers distinguish transport failures from
// gateway refusals via ErrRejected.
func (c *Client) CreateOrder(ctx context.Context, order CreateOrderRequest) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("order gateway: encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order gateway: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var decoded createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("order gateway returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("order gateway: decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !decoded.Success {
		msg := decoded.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return nil
}
