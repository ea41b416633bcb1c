package types

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	HeaderWebhookSignature = "x-webhook-signature"
	HeaderWebhookTimestamp = "x-webhook-timestamp"
)

type CreatePaymentSessionRequest struct {
	OrderID       string          `json:"order_id" validate:"required,min=3,max=50,order_id"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0,lte=10000000"`
	Currency      string          `json:"currency" validate:"len=3,alpha"`
	CustomerID    string          `json:"customer_id" validate:"required,max=50"`
	CustomerName  string          `json:"customer_name" validate:"required,max=100"`
	CustomerEmail string          `json:"customer_email" validate:"required,email"`
	CustomerPhone string          `json:"customer_phone" validate:"required,numeric,min=10,max=15"`
	ReturnURL     string          `json:"return_url,omitempty" validate:"omitempty,url"`
	NotifyURL     string          `json:"notify_url,omitempty" validate:"omitempty,url"`
	OrderNote     string          `json:"order_note,omitempty" validate:"max=200"`
}

func NewCreatePaymentSessionRequestFromContext(ctx echo.Context, defaultCurrency string) (*CreatePaymentSessionRequest, error) {
	var body CreatePaymentSessionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.OrderID = strings.TrimSpace(body.OrderID)
	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	if body.Currency == "" {
		body.Currency = strings.ToUpper(defaultCurrency)
	}
	body.CustomerID = strings.TrimSpace(body.CustomerID)
	body.CustomerName = strings.TrimSpace(body.CustomerName)
	body.CustomerEmail = strings.ToLower(strings.TrimSpace(body.CustomerEmail))
	body.CustomerPhone = strings.TrimPrefix(strings.TrimSpace(body.CustomerPhone), "+")
	body.ReturnURL = strings.TrimSpace(body.ReturnURL)
	body.NotifyURL = strings.TrimSpace(body.NotifyURL)
	body.OrderNote = strings.TrimSpace(body.OrderNote)

	return &body, nil
}

func (r *CreatePaymentSessionRequest) Validate() error {
	return validateStruct(r)
}

type CreatePaymentSessionResponse struct {
	Success          bool   `json:"success"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"cf_order_id,omitempty"`
	OrderStatus      string `json:"order_status,omitempty"`
}

type VerifyPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,min=3,max=50,order_id"`
}

func NewVerifyPaymentRequestFromContext(ctx echo.Context) (*VerifyPaymentRequest, error) {
	var body VerifyPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.OrderID = strings.TrimSpace(body.OrderID)
	return &body, nil
}

func (r *VerifyPaymentRequest) Validate() error {
	return validateStruct(r)
}

type OrderStatusRequest struct {
	OrderID string `json:"order_id" validate:"required,min=3,max=50,order_id"`
}

func NewOrderStatusRequestFromContext(ctx echo.Context) (*OrderStatusRequest, error) {
	return &OrderStatusRequest{OrderID: strings.TrimSpace(ctx.Param("order_id"))}, nil
}

func (r *OrderStatusRequest) Validate() error {
	return validateStruct(r)
}

type OrderStatusResponse struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"order_id"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentTime   string `json:"payment_time,omitempty"`
	OrderAmount   string `json:"order_amount"`
	CreatedAt     string `json:"created_at,omitempty"`
}

type GatewayWebhookRequest struct {
	Signature string
	Timestamp string
	Payload   []byte
}

func NewGatewayWebhookRequestFromContext(ctx echo.Context) (*GatewayWebhookRequest, error) {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}
	return &GatewayWebhookRequest{
		Signature: strings.TrimSpace(ctx.Request().Header.Get(HeaderWebhookSignature)),
		Timestamp: strings.TrimSpace(ctx.Request().Header.Get(HeaderWebhookTimestamp)),
		Payload:   payload,
	}, nil
}

func (r *GatewayWebhookRequest) Validate() error {
	details := make(map[string]string)
	if len(r.Payload) == 0 {
		details["body"] = "is required"
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

type WebhookAckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}
