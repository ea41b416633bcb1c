package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateOrder    = errors.New("duplicate order")
	ErrGatewayValidation = errors.New("gateway rejected the request")
	ErrGatewayAuth       = errors.New("gateway authentication failed")
	ErrGatewayFailure    = errors.New("gateway request failed")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrOrderNotFound     = errors.New("gateway order not found")
)

// GatewayError carries the HTTP status and message the gateway answered with.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway status %d: %s", e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusConflict:
		return ErrDuplicateOrder
	case http.StatusBadRequest:
		return ErrGatewayValidation
	case http.StatusUnauthorized:
		return ErrGatewayAuth
	case http.StatusNotFound:
		return ErrOrderNotFound
	default:
		return ErrGatewayFailure
	}
}

type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

type CreateOrderInput struct {
	OrderID   string
	Amount    decimal.Decimal
	Currency  string
	Customer  Customer
	ReturnURL string
	NotifyURL string
	Note      string
}

type CreateOrderOutput struct {
	OrderID          string
	GatewayOrderID   string
	PaymentSessionID string
	OrderStatus      string
}

// Normalized event types delivered by VerifyAndParseWebhook.
const (
	EventPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	EventPaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
	EventUserDropped    = "PAYMENT_USER_DROPPED_WEBHOOK"
)

type WebhookEvent struct {
	EventType     string
	OrderID       string
	PaymentID     *string
	PaymentStatus string
	PaymentMethod *string
	PaymentTime   *time.Time
}

type OrderStatus struct {
	OrderID       string
	OrderStatus   string
	OrderAmount   decimal.Decimal
	PaymentStatus string
	PaymentID     *string
	PaymentMethod *string
	PaymentTime   *time.Time
	CreatedAt     *time.Time
}

type Provider interface {
	Code() string
	CreateOrder(ctx context.Context, input *CreateOrderInput) (*CreateOrderOutput, error)
	VerifyAndParseWebhook(ctx context.Context, payload []byte, signature, timestamp string) (*WebhookEvent, error)
	GetOrderStatus(ctx context.Context, orderID string) (*OrderStatus, error)
}
