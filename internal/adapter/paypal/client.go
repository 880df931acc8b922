package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// ErrMissingCredentials is returned when client id or secret is empty.
var ErrMissingCredentials = errors.New("paypal credentials are not configured")

// APIError carries a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("paypal: status %d", e.StatusCode)
	}
	return fmt.Sprintf("paypal: status %d: %s: %s", e.StatusCode, e.Name, e.Message)
}

// Gateway creates and captures remote payment orders.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*model.RemotePayment, error)
	Capture(ctx context.Context, gatewayOrderID string) (*model.Capture, error)
	// ShowOrder reads the current state of an order, including any capture.
	ShowOrder(ctx context.Context, gatewayOrderID string) (*model.Capture, error)
}

// OrderRequest describes a single-unit purchase.
type OrderRequest struct {
	ReferenceID string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// Options configure the REST client.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	BrandName    string
	Timeout      time.Duration
}

// Client talks to the PayPal Orders v2 API.
type Client struct {
	http      *resty.Client
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string  `json:"reference_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      *amount `json:"amount,omitempty"`
	Payments    *struct {
		Captures []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Amount amount `json:"amount"`
		} `json:"captures"`
	} `json:"payments,omitempty"`
}

type applicationContext struct {
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
	BrandName  string `json:"brand_name,omitempty"`
	UserAction string `json:"user_action"`
}

type createOrderBody struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []purchaseUnit     `json:"purchase_units"`
	ApplicationContext applicationContext `json:"application_context"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Links         []link         `json:"links"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewClient validates options and prepares the REST client.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse paypal url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("paypal url must be absolute")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(parsed.String()).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, opts: opts, logger: logger, now: time.Now}, nil
}

// CreateOrder registers a CAPTURE intent order and returns its approval link.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*model.RemotePayment, error) {
	currency := req.Currency
	if currency == "" {
		currency = model.Currency
	}
	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: req.ReferenceID,
			Description: req.Description,
			Amount:      &amount{CurrencyCode: currency, Value: req.Amount.StringFixed(2)},
		}},
		ApplicationContext: applicationContext{
			ReturnURL:  c.opts.ReturnURL,
			CancelURL:  c.opts.CancelURL,
			BrandName:  c.opts.BrandName,
			UserAction: "PAY_NOW",
		},
	}

	var out orderResponse
	if _, err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &out); err != nil {
		return nil, err
	}

	payment := &model.RemotePayment{ID: out.ID, Status: out.Status}
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			payment.ApproveURL = l.Href
			break
		}
	}
	if payment.ApproveURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approval link", out.ID)
	}
	c.logger.Debug("paypal order created", slog.String("gateway_order_id", out.ID))
	return payment, nil
}

// Capture settles an approved order. The raw response is kept as payload.
func (c *Client) Capture(ctx context.Context, gatewayOrderID string) (*model.Capture, error) {
	var out orderResponse
	raw, err := c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(gatewayOrderID)+"/capture", struct{}{}, &out)
	if err != nil {
		return nil, err
	}
	return captureFrom(out, raw), nil
}

// ShowOrder fetches the order as the gateway currently sees it.
func (c *Client) ShowOrder(ctx context.Context, gatewayOrderID string) (*model.Capture, error) {
	var out orderResponse
	raw, err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(gatewayOrderID), nil, &out)
	if err != nil {
		return nil, err
	}
	return captureFrom(out, raw), nil
}

// captureFrom reads the first capture of the order. The order may report
// COMPLETED while its capture is still PENDING, so only the capture status
// is taken as Status.
func captureFrom(out orderResponse, raw []byte) *model.Capture {
	capture := &model.Capture{
		OrderID:     out.ID,
		OrderStatus: out.Status,
		Payload:     json.RawMessage(raw),
	}
	for _, unit := range out.PurchaseUnits {
		if unit.Payments == nil || len(unit.Payments.Captures) == 0 {
			continue
		}
		first := unit.Payments.Captures[0]
		capture.TransactionID = first.ID
		capture.Status = first.Status
		if value, err := decimal.NewFromString(first.Amount.Value); err == nil {
			capture.Amount = value
		}
		capture.Currency = first.Amount.CurrencyCode
		break
	}
	return capture
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}

		req := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetHeader("Content-Type", "application/json")
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("paypal request failed: %w", err)
		}

		if resp.StatusCode() == http.StatusUnauthorized && attempt == 0 {
			c.resetToken()
			continue
		}
		if resp.IsError() {
			return nil, c.apiError(resp)
		}
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return nil, fmt.Errorf("decode paypal response: %w", err)
		}
		return resp.Body(), nil
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.opts.ClientID, c.opts.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}
	if resp.IsError() {
		return "", c.apiError(resp)
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal returned empty access token")
	}

	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl > 2*time.Minute {
		ttl -= time.Minute
	}
	c.token = out.AccessToken
	c.expiresAt = c.now().Add(ttl)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) apiError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var payload errorResponse
	if err := json.Unmarshal(resp.Body(), &payload); err == nil {
		apiErr.Name = payload.Name
		apiErr.Message = payload.Message
	}
	c.logger.Error("paypal request rejected",
		slog.Int("status", resp.StatusCode()),
		slog.String("name", apiErr.Name),
		slog.String("url", resp.Request.URL),
	)
	return apiErr
}
