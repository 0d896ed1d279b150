// Package payment provides the gateway clients used by the order workflow:
// an HTTP client for a real provider and a sandbox for development.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/order"
)

var _ order.Gateway = (*Client)(nil)

// Client charges a remote payment provider over HTTP. The provider contract
// is a single synchronous call: it either approves or declines; the workflow
// never retries.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a gateway client posting charge requests to url.
// Per-call deadlines come from the caller's context; httpClient may carry an
// additional transport-level timeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, http: httpClient}
}

type chargeRequest struct {
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
}

type chargeResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Code      string `json:"code"`
}

// Charge submits a charge and maps the provider's answer onto ChargeResult.
// Transport failures, non-2xx statuses, and malformed bodies are returned as
// errors; a clean decline comes back with Approved=false.
func (c *Client) Charge(ctx context.Context, method string, amount decimal.Decimal) (*order.ChargeResult, error) {
	body, err := json.Marshal(chargeRequest{PaymentMethod: method, Amount: amount})
	if err != nil {
		return nil, errors.Wrap(err, "encode charge request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build charge request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "charge request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode charge response")
	}

	return &order.ChargeResult{
		Approved:  out.Success,
		Reference: out.Reference,
		Code:      out.Code,
	}, nil
}
