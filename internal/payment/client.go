package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrGateway = errors.New("payment gateway error")

// Gateway is what checkout and refunds need from the card processor.
type Gateway interface {
	InitReference(ctx context.Context, req ReferenceRequest) (*ReferenceResponse, error)
	Refund(ctx context.Context, transactionID string) (*RefundResponse, error)
}

type Config struct {
	BaseURL string
	AppCode string
	AppKey  string
	Timeout time.Duration
}

// Client talks to the Paymentez REST API.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

// ServerTime is the clock used to sign gateway requests.
func (c *Client) ServerTime() time.Time {
	return c.now()
}

func (c *Client) InitReference(ctx context.Context, req ReferenceRequest) (*ReferenceResponse, error) {
	var out ReferenceResponse
	if err := c.post(ctx, "/v2/transaction/init_reference/", req, &out); err != nil {
		return nil, err
	}
	if out.Reference == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrGateway)
	}
	return &out, nil
}

func (c *Client) Refund(ctx context.Context, transactionID string) (*RefundResponse, error) {
	body := map[string]any{"transaction": map[string]string{"id": transactionID}}
	var out RefundResponse
	if err := c.post(ctx, "/v2/transaction/refund/", body, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return &out, fmt.Errorf("%w: refund %s: %s", ErrGateway, out.Status, out.Detail)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Auth-Token", AuthToken(c.cfg.AppCode, c.cfg.AppKey, c.ServerTime().Unix()))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
	}
	return nil
}
