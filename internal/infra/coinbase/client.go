// Package coinbase is a thin client for the Coinbase Commerce REST API,
// covering the two calls the console makes: creating a charge and fetching
// one during reconciliation.
package coinbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"contextlattice-console/internal/pkg/httpretry"
)

const (
	defaultBaseURL = "https://api.commerce.coinbase.com"
	apiVersion     = "2018-03-22"
)

type Client struct {
	apiKey  string
	baseURL string
	http    *httpretry.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    httpretry.NewClient(),
	}
}

// WithBaseURL points the client at a different endpoint (tests).
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// Charge is the subset of a Commerce charge the console reads.
type Charge struct {
	ID        string          `json:"id"`
	HostedURL string          `json:"hosted_url"`
	Timeline  []TimelineEntry `json:"timeline"`
}

type TimelineEntry struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type chargeEnvelope struct {
	Data  Charge `json:"data"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateChargeParams mirrors the Commerce charge-creation body.
type CreateChargeParams struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PricingType string            `json:"pricing_type"`
	LocalPrice  LocalPrice        `json:"local_price"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	CancelURL   string            `json:"cancel_url,omitempty"`
}

type LocalPrice struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (c *Client) CreateCharge(ctx context.Context, params CreateChargeParams) (*Charge, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("coinbase: marshal charge params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.do(req)
}

// GetCharge fetches a charge by its Commerce id (the intent reference).
func (c *Client) GetCharge(ctx context.Context, chargeID string) (*Charge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/charges/"+chargeID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.do(req)
}

// LastTimelineStatus returns the status of the most recent timeline entry,
// or "" when the timeline is empty. Provider truth for reconciliation.
func (ch *Charge) LastTimelineStatus() string {
	if len(ch.Timeline) == 0 {
		return ""
	}
	return ch.Timeline[len(ch.Timeline)-1].Status
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CC-Api-Key", c.apiKey)
	req.Header.Set("X-CC-Version", apiVersion)
}

func (c *Client) do(req *http.Request) (*Charge, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coinbase: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coinbase: read response: %w", err)
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("coinbase: unmarshal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "Coinbase error"
		if envelope.Error != nil && envelope.Error.Message != "" {
			msg = envelope.Error.Message
		}
		return nil, fmt.Errorf("coinbase: %s (status %d)", msg, resp.StatusCode)
	}
	return &envelope.Data, nil
}
