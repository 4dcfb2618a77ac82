package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"qrtag-service/internal/util"
)

// Order is a payment intent created at the gateway
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// OrderCreator creates payment intents. amount is in rupees.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amount int64, receipt string) (*Order, error)
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// HTTPClient talks to the gateway's orders API
type HTTPClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewHTTPClient creates a gateway client using basic auth with the key pair
func NewHTTPClient(baseURL, keyID, keySecret string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// KeyID returns the public key id handed to checkout clients
func (c *HTTPClient) KeyID() string {
	return c.keyID
}

// CreateOrder creates a gateway order for amount rupees, sent in paise
func (c *HTTPClient) CreateOrder(ctx context.Context, amount int64, receipt string) (*Order, error) {
	ctx, span := util.StartSpan(ctx, "Gateway.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.GatewayLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(createOrderRequest{
		Amount:   amount * 100,
		Currency: "INR",
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("gateway returned an order without id")
	}
	return &order, nil
}
