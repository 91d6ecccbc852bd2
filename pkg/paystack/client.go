package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
)

const (
	defaultBaseURL              = "https://api.paystack.co"
	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 1 << 20

	// StatusSuccess is the transaction status reported for a settled charge.
	StatusSuccess = "success"

	opInitialize = "initialize"
	opVerify     = "verify"
)

// Client wraps the Paystack transaction APIs used at checkout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	metrics    *metrics.GatewayMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMetrics records call counts and latency.
func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the Paystack client. An empty secret key is accepted so the
// process can boot; every gateway call then fails with a misconfiguration error.
func NewClient(secretKey string, opts ...Option) *Client {
	client := &Client{
		secretKey:  strings.TrimSpace(secretKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	return client
}

// SecretKey is also the webhook signing secret.
func (c *Client) SecretKey() string {
	if c == nil {
		return ""
	}
	return c.secretKey
}

// InitializeRequest describes a new hosted-checkout transaction.
type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Reference   string
	Currency    string
	CallbackURL string
	Metadata    map[string]any
}

// InitializeResult carries the hosted payment page handles.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Customer is the payer as reported by the gateway.
type Customer struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
}

// Verification is the normalized verify-transaction result.
type Verification struct {
	Status          string
	Reference       string
	Amount          decimal.Decimal
	AmountMinor     int64
	Currency        string
	GatewayResponse string
	PaidAt          *time.Time
	Customer        Customer
	Metadata        map[string]any
}

// Successful reports whether the gateway settled the charge.
func (v *Verification) Successful() bool {
	return v != nil && v.Status == StatusSuccess
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializePayload struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          *time.Time      `json:"paid_at"`
	Customer        Customer        `json:"customer"`
	Metadata        json.RawMessage `json:"metadata"`
}

// Initialize creates a transaction and returns the hosted payment page URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload, err := json.Marshal(initializePayload{
		Email:       strings.TrimSpace(req.Email),
		Amount:      ToMinorUnits(req.Amount),
		Reference:   req.Reference,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal initialize request")
	}

	var result InitializeResult
	if err := c.do(ctx, opInitialize, http.MethodPost, "transaction/initialize", payload, &result, nil); err != nil {
		return nil, err
	}
	if result.Reference == "" {
		result.Reference = req.Reference
	}
	return &result, nil
}

// Verify fetches the transaction state for reference. A nil error means the
// gateway answered; callers must still check Successful.
func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	var data verifyData
	path := "transaction/verify/" + url.PathEscape(trimmed)
	outcome := func() string {
		if data.Status == StatusSuccess {
			return metrics.OutcomeSuccess
		}
		return metrics.OutcomeDeclined
	}
	if err := c.do(ctx, opVerify, http.MethodGet, path, nil, &data, outcome); err != nil {
		return nil, err
	}

	verification := &Verification{
		Status:          data.Status,
		Reference:       data.Reference,
		Amount:          FromMinorUnits(data.Amount),
		AmountMinor:     data.Amount,
		Currency:        data.Currency,
		GatewayResponse: data.GatewayResponse,
		PaidAt:          data.PaidAt,
		Customer:        data.Customer,
		Metadata:        decodeMetadata(data.Metadata),
	}
	if verification.Reference == "" {
		verification.Reference = trimmed
	}
	return verification, nil
}

func (c *Client) ready() error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeMisconfigured, "payment gateway client not configured")
	}
	if c.secretKey == "" {
		return pkgerrors.New(pkgerrors.CodeMisconfigured, "payment gateway secret key not configured")
	}
	return nil
}

// do executes one API call and decodes the data member of the envelope into out.
// settled, when set, decides the recorded outcome after a successful decode.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any, settled func() string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", op))
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(op, metrics.OutcomeError, time.Since(started))
		return pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, fmt.Sprintf("execute %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		c.observe(op, metrics.OutcomeError, time.Since(started))
		return pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, fmt.Sprintf("read %s response", op))
	}

	var envelope apiEnvelope
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode >= http.StatusInternalServerError {
		c.observe(op, metrics.OutcomeError, time.Since(started))
		return pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), fmt.Sprintf("%s request failed", op))
	}
	if decodeErr != nil {
		c.observe(op, metrics.OutcomeError, time.Since(started))
		return pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, decodeErr, fmt.Sprintf("decode %s response", op))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		c.observe(op, metrics.OutcomeDeclined, time.Since(started))
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = fmt.Sprintf("%s request rejected with status %d", op, resp.StatusCode)
		}
		return pkgerrors.New(pkgerrors.CodeGateway, message).WithDetails(map[string]any{
			"operation":   op,
			"http_status": resp.StatusCode,
		})
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			c.observe(op, metrics.OutcomeError, time.Since(started))
			return pkgerrors.Wrap(pkgerrors.CodeGatewayUnavailable, err, fmt.Sprintf("decode %s data", op))
		}
	}
	if settled != nil {
		c.observe(op, settled(), time.Since(started))
	} else {
		c.observe(op, metrics.OutcomeSuccess, time.Since(started))
	}
	return nil
}

func (c *Client) observe(op, outcome string, elapsed time.Duration) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Observe(op, outcome, elapsed)
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func decodeMetadata(raw json.RawMessage) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(trimmed, &out); err == nil {
		return out
	}
	// Metadata is sometimes sent back as a JSON-encoded string.
	var encoded string
	if err := json.Unmarshal(trimmed, &encoded); err == nil && encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &out); err == nil {
			return out
		}
	}
	return nil
}
