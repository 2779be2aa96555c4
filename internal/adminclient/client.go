// Package adminclient talks to the admin endpoints of the CustomCraft API.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/customcraft/internal/auth"
)

type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID string          `json:"transaction_id"`
	MinecraftNick string          `json:"minecraft_nick"`
	ItemType      string          `json:"item_type"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	PayerEmail    string          `json:"payer_email"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

type Voucher struct {
	Code       string     `json:"code"`
	ItemType   string     `json:"item_type"`
	Quantity   int        `json:"quantity"`
	CreatedAt  time.Time  `json:"created_at"`
	Redeemed   bool       `json:"redeemed"`
	RedeemedBy *string    `json:"redeemed_by"`
	RedeemedAt *time.Time `json:"redeemed_at"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL     string
	adminKey    string
	tokenSecret string
	tokenTTL    time.Duration
	http        *http.Client
}

type Option func(*Client)

// WithTokenSecret makes the client authenticate with short-lived tokens
// instead of sending the admin key.
func WithTokenSecret(secret string, ttl time.Duration) Option {
	return func(c *Client) {
		c.tokenSecret = secret
		c.tokenTTL = ttl
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL, adminKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		adminKey: adminKey,
		tokenTTL: time.Minute,
		http:     &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

func (c *Client) Vouchers(ctx context.Context) ([]Voucher, error) {
	var vs []Voucher
	if err := c.do(ctx, http.MethodGet, "/api/vouchers", nil, &vs); err != nil {
		return nil, err
	}

	return vs, nil
}

type issueRequest struct {
	ItemType string `json:"item_type"`
	Quantity int    `json:"quantity"`
}

func (c *Client) IssueVoucher(ctx context.Context, itemType string, quantity int) (*Voucher, error) {
	var resp struct {
		Voucher Voucher `json:"voucher"`
	}

	if err := c.do(ctx, http.MethodPost, "/api/create-voucher", issueRequest{ItemType: itemType, Quantity: quantity}, &resp); err != nil {
		return nil, err
	}

	return &resp.Voucher, nil
}

// TestRCON asks the API to probe the game server and returns its reply.
func (c *Client) TestRCON(ctx context.Context) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/test-rcon", nil, &resp); err != nil {
		return "", err
	}

	return resp.Response, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.authenticate(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}

		_ = json.NewDecoder(resp.Body).Decode(&failure)

		msg := failure.Error
		if msg == "" {
			msg = failure.Message
		}

		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}

		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}

func (c *Client) authenticate(req *http.Request) error {
	if c.tokenSecret == "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
		return nil
	}

	token, err := auth.IssueToken(c.tokenSecret, c.tokenTTL)
	if err != nil {
		return fmt.Errorf("issuing admin token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	return nil
}
