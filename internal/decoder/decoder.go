// Package decoder talks to the bill image decoding service.
package decoder

//go:generate mockgen -source=decoder.go -destination=../mocks/decoder/decoder_mock.go -package=decoder_mock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mmynk/moneyshare/internal/metrics"
	"github.com/mmynk/moneyshare/internal/models"
)

// ServiceName identifies the decoder in ExternalServiceError.
const ServiceName = "bill decoder"

// DefaultTimeout bounds a single decode request.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrNotConfigured is returned when no decoder endpoint is set.
var ErrNotConfigured = errors.New("decoder endpoint not configured")

// Decoder turns a bill image into itemized expenses.
type Decoder interface {
	Decode(ctx context.Context, image string) (models.DecodedBill, error)
}

// Client is the HTTP implementation of Decoder.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token with each request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient sets the HTTP client requests are sent with. The client is
// copied, so a shared client such as http.DefaultClient is never modified.
// A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	return c
}

type decodeRequest struct {
	Base64URL string `json:"Base64Url"`
}

// Decode posts the image and parses the itemized response. Any failure is
// reported as a *models.ExternalServiceError.
func (c *Client) Decode(ctx context.Context, image string) (bill models.DecodedBill, err error) {
	start := time.Now()
	defer func() { metrics.RecordDecode(time.Since(start), err) }()

	if c.baseURL == "" {
		return models.DecodedBill{}, external(ErrNotConfigured)
	}
	if strings.TrimSpace(image) == "" {
		return models.DecodedBill{}, models.ValidationError{Reason: "image is required"}
	}

	body, err := json.Marshal(decodeRequest{Base64URL: image})
	if err != nil {
		return models.DecodedBill{}, external(fmt.Errorf("failed to encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bill", bytes.NewReader(body))
	if err != nil {
		return models.DecodedBill{}, external(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.DecodedBill{}, external(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.DecodedBill{}, external(fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.DecodedBill{}, external(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	bill, err = Parse(raw)
	if err != nil {
		return models.DecodedBill{}, external(err)
	}
	slog.Debug("Bill decoded", "expenses", len(bill.Expenses), "duration_ms", time.Since(start).Milliseconds())
	return bill, nil
}

// Parse reads a decoder response. The payload may sit at the top level or
// under "data". A "totalAmount" field is ignored; totals are always
// derived from the expenses.
func Parse(raw []byte) (models.DecodedBill, error) {
	if !gjson.ValidBytes(raw) {
		return models.DecodedBill{}, errors.New("response is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if data := root.Get("data"); data.IsObject() {
		root = data
	}
	if !root.IsObject() {
		return models.DecodedBill{}, errors.New("response is not an object")
	}

	expenses := root.Get("expenses")
	if !expenses.IsArray() {
		return models.DecodedBill{}, errors.New("response has no expenses array")
	}

	bill := models.DecodedBill{
		DiscountAmount: nonNegative(root.Get("discountAmount")),
		ShipAmount:     nonNegative(root.Get("shipAmount")),
		ActualTotal:    nonNegative(root.Get("actualTotal")),
		Name:           root.Get("name").String(),
		Address:        root.Get("address").String(),
	}
	for _, item := range expenses.Array() {
		if !item.IsObject() {
			continue
		}
		bill.Expenses = append(bill.Expenses, models.Expense{
			Name:     strings.TrimSpace(item.Get("name").String()),
			Amount:   nonNegative(item.Get("amount")),
			Quantity: int(item.Get("quantity").Int()),
		})
	}
	return bill, nil
}

// nonNegative reads a number that may arrive as a JSON number or a numeric
// string. Missing, malformed and negative values read as zero.
func nonNegative(v gjson.Result) float64 {
	f := v.Float()
	if f < 0 {
		return 0
	}
	return f
}

func external(err error) error {
	return &models.ExternalServiceError{Service: ServiceName, Err: err}
}
