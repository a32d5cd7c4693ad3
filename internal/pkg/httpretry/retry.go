// Package httpretry wraps net/http with bounded retries for outbound calls
// to payment providers: capped attempts, exponential backoff with jitter,
// and a fixed set of retryable statuses. Requests without a deadline get a
// default per-call timeout.
package httpretry

import (
	"math"
	"math/rand"
	"net/http"
	"time"
)

const (
	DefaultRetries  = 3
	DefaultMinDelay = 250 * time.Millisecond
	DefaultMaxDelay = 2 * time.Second
	DefaultTimeout  = 30 * time.Second
)

// RetryableStatus reports whether a response status warrants a retry.
func RetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, // 408
		http.StatusTooEarly,            // 425
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}
	return false
}

// Client retries requests whose responses carry a retryable status. Transport
// errors are returned immediately; only well-formed provider pushback is
// retried.
type Client struct {
	HTTP     *http.Client
	Retries  int
	MinDelay time.Duration
	MaxDelay time.Duration

	// RetryOn overrides the retryable-status check when set.
	RetryOn func(*http.Response) bool

	sleep func(time.Duration)
}

// NewClient returns a retrying client with the default policy.
func NewClient() *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: DefaultTimeout},
		Retries:  DefaultRetries,
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
		sleep:    time.Sleep,
	}
}

// Do executes the request, retrying up to Retries extra attempts. The request
// body must be replayable (req.GetBody set), which http.NewRequest arranges
// for bytes and strings readers.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	retryOn := c.RetryOn
	if retryOn == nil {
		retryOn = func(resp *http.Response) bool { return RetryableStatus(resp.StatusCode) }
	}
	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	attempt := 0
	for {
		attempt++
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if !retryOn(resp) || attempt > c.Retries {
			return resp, nil
		}
		resp.Body.Close()
		sleep(c.backoff(attempt))
	}
}

// backoff doubles MinDelay per attempt, capped at MaxDelay, with a jitter
// factor in [0.85, 1.15).
func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.MinDelay) * math.Pow(2, float64(attempt-1))
	if capped := float64(c.MaxDelay); base > capped {
		base = capped
	}
	jitter := rand.Float64()*0.3 + 0.85
	return time.Duration(base * jitter)
}
