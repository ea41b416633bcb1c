package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const CodeCashfree = "cashfree"

type CashfreeConfig struct {
	AppID                     string
	SecretKey                 string
	WebhookSecret             string
	BaseURL                   string
	APIVersion                string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

type CashfreeProvider struct {
	cfg    CashfreeConfig
	client *http.Client
	now    func() time.Time
}

func NewCashfreeProvider(cfg CashfreeConfig) *CashfreeProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.SignatureToleranceSeconds <= 0 {
		cfg.SignatureToleranceSeconds = 300
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2023-08-01"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &CashfreeProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (p *CashfreeProvider) Code() string {
	return CodeCashfree
}

func (p *CashfreeProvider) CreateOrder(ctx context.Context, input *CreateOrderInput) (*CreateOrderOutput, error) {
	if strings.TrimSpace(p.cfg.AppID) == "" || strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, errors.New("cashfree credentials are not configured")
	}

	request := map[string]interface{}{
		"order_id":       input.OrderID,
		"order_amount":   input.Amount.Round(2).InexactFloat64(),
		"order_currency": strings.ToUpper(input.Currency),
		"customer_details": map[string]string{
			"customer_id":    input.Customer.ID,
			"customer_name":  input.Customer.Name,
			"customer_email": input.Customer.Email,
			"customer_phone": input.Customer.Phone,
		},
		"order_meta": map[string]string{
			"return_url": input.ReturnURL,
			"notify_url": input.NotifyURL,
		},
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		request["order_note"] = note
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	body, err := p.do(ctx, http.MethodPost, "/orders", encoded)
	if err != nil {
		return nil, err
	}

	var payload struct {
		CFOrderID        json.RawMessage `json:"cf_order_id"`
		OrderID          string          `json:"order_id"`
		PaymentSessionID string          `json:"payment_session_id"`
		OrderStatus      string          `json:"order_status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.PaymentSessionID) == "" {
		return nil, &GatewayError{StatusCode: http.StatusBadGateway, Message: "payment session id missing in gateway response"}
	}

	orderID := strings.TrimSpace(payload.OrderID)
	if orderID == "" {
		orderID = input.OrderID
	}

	return &CreateOrderOutput{
		OrderID:          orderID,
		GatewayOrderID:   flexibleString(payload.CFOrderID),
		PaymentSessionID: strings.TrimSpace(payload.PaymentSessionID),
		OrderStatus:      payload.OrderStatus,
	}, nil
}

// GetOrderStatus combines the order record with its most recent payment attempt.
func (p *CashfreeProvider) GetOrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	path := "/orders/" + url.PathEscape(orderID)

	body, err := p.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var order struct {
		OrderID     string          `json:"order_id"`
		OrderStatus string          `json:"order_status"`
		OrderAmount decimal.Decimal `json:"order_amount"`
		CreatedAt   string          `json:"created_at"`
	}
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, err
	}

	result := &OrderStatus{
		OrderID:     order.OrderID,
		OrderStatus: order.OrderStatus,
		OrderAmount: order.OrderAmount,
		CreatedAt:   parseGatewayTime(order.CreatedAt),
	}
	if result.OrderID == "" {
		result.OrderID = orderID
	}

	paymentsBody, err := p.do(ctx, http.MethodGet, path+"/payments", nil)
	if err != nil {
		return nil, err
	}

	var payments []cashfreePayment
	if err := json.Unmarshal(paymentsBody, &payments); err != nil {
		return nil, err
	}

	if latest := latestPayment(payments); latest != nil {
		result.PaymentStatus = latest.PaymentStatus
		result.PaymentID = optionalString(flexibleString(latest.CFPaymentID))
		result.PaymentMethod = latest.method()
		result.PaymentTime = parseGatewayTime(latest.PaymentTime)
	}

	return result, nil
}

func (p *CashfreeProvider) VerifyAndParseWebhook(_ context.Context, payload []byte, signature, timestamp string) (*WebhookEvent, error) {
	if strings.TrimSpace(p.cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidSignature)
	}
	if !verifyCashfreeSignature(payload, signature, timestamp, p.cfg.WebhookSecret, p.cfg.SignatureToleranceSeconds, p.now()) {
		return nil, ErrInvalidSignature
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Order struct {
				OrderID string `json:"order_id"`
			} `json:"order"`
			Payment cashfreePayment `json:"payment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	result := &WebhookEvent{
		EventType:     strings.TrimSpace(event.Type),
		OrderID:       strings.TrimSpace(event.Data.Order.OrderID),
		PaymentID:     optionalString(flexibleString(event.Data.Payment.CFPaymentID)),
		PaymentStatus: event.Data.Payment.PaymentStatus,
		PaymentMethod: event.Data.Payment.method(),
		PaymentTime:   parseGatewayTime(event.Data.Payment.PaymentTime),
	}
	return result, nil
}

func (p *CashfreeProvider) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-client-id", p.cfg.AppID)
	req.Header.Set("x-client-secret", p.cfg.SecretKey)
	req.Header.Set("x-api-version", p.cfg.APIVersion)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &GatewayError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: gatewayMessage(body)}
	}

	return body, nil
}

type cashfreePayment struct {
	CFPaymentID   json.RawMessage `json:"cf_payment_id"`
	PaymentStatus string          `json:"payment_status"`
	PaymentGroup  string          `json:"payment_group"`
	PaymentMethod json.RawMessage `json:"payment_method"`
	PaymentTime   string          `json:"payment_time"`
}

// method prefers the payment group ("upi", "card"); older payloads send a plain string.
func (p *cashfreePayment) method() *string {
	if s := strings.TrimSpace(p.PaymentGroup); s != "" {
		return &s
	}
	if s := flexibleString(p.PaymentMethod); s != "" {
		return &s
	}
	var object map[string]json.RawMessage
	if json.Unmarshal(p.PaymentMethod, &object) == nil {
		for key := range object {
			k := key
			return &k
		}
	}
	return nil
}

func latestPayment(payments []cashfreePayment) *cashfreePayment {
	var latest *cashfreePayment
	var latestAt time.Time
	for i := range payments {
		current := &payments[i]
		at := parseGatewayTime(current.PaymentTime)
		if latest == nil {
			latest = current
			if at != nil {
				latestAt = *at
			}
			continue
		}
		if at != nil && at.After(latestAt) {
			latest = current
			latestAt = *at
		}
	}
	return latest
}

func verifyCashfreeSignature(payload []byte, signature, timestamp, secret string, toleranceSeconds int64, now time.Time) bool {
	signature = strings.TrimSpace(signature)
	timestamp = strings.TrimSpace(timestamp)
	if signature == "" || timestamp == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	// Cashfree sends milliseconds.
	tsSeconds := ts
	if ts > 1e12 {
		tsSeconds = ts / 1000
	}
	current := now.Unix()
	if current-tsSeconds > toleranceSeconds || tsSeconds-current > toleranceSeconds {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write(payload)
	expected := mac.Sum(nil)

	candidate, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(candidate, expected)
}

// SignWebhook produces the signature Cashfree would send for payload at timestamp.
func SignWebhook(payload []byte, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func gatewayMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		return strings.TrimSpace(payload.Message)
	}
	return ""
}

func flexibleString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseGatewayTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
