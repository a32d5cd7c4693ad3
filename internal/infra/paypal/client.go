// Package paypal is a thin client for the PayPal Orders REST API. Access
// tokens come from the OAuth2 client-credentials flow (basic auth with the
// client id/secret against /v1/oauth2/token).
package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"contextlattice-console/internal/pkg/httpretry"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	liveBaseURL    = "https://api-m.paypal.com"
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
)

// BaseURL picks the API host for a configured environment.
func BaseURL(env string) string {
	if env == "live" {
		return liveBaseURL
	}
	return sandboxBaseURL
}

type Client struct {
	baseURL string
	creds   *clientcredentials.Config
	http    *httpretry.Client
}

func NewClient(clientID, clientSecret, env string) *Client {
	base := BaseURL(env)
	return &Client{
		baseURL: base,
		creds: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     base + "/v1/oauth2/token",
		},
		http: httpretry.NewClient(),
	}
}

// WithBaseURL points the client at a different endpoint (tests). The token
// URL moves with it.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	c.creds.TokenURL = url + "/v1/oauth2/token"
	return c
}

// Order is the subset of a PayPal order the console reads.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorBody struct {
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

// GetOrder fetches an order by id (the intent reference).
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/checkout/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// CaptureOrder captures an approved order. requestID is sent as
// PayPal-Request-Id for provider-side idempotency.
func (c *Client) CaptureOrder(ctx context.Context, orderID, requestID string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/checkout/orders/"+orderID+"/capture", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*Order, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("paypal: auth failed: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paypal: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorBody
		_ = json.Unmarshal(body, &e)
		msg := e.Message
		if msg == "" {
			msg = "PayPal error"
		}
		return nil, fmt.Errorf("paypal: %s (status %d)", msg, resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("paypal: unmarshal order: %w", err)
	}
	return &order, nil
}
