package types

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SubmitDonationRequest struct {
	Amount            decimal.Decimal `json:"amount" validate:"gt=0,lte=10000000"`
	Currency          string          `json:"currency" validate:"len=3,alpha"`
	DonationType      string          `json:"donation_type" validate:"required,max=64"`
	IsAnonymous       bool            `json:"is_anonymous"`
	DedicationMessage *string         `json:"dedication_message,omitempty" validate:"omitempty,max=500"`

	FullName     string  `json:"full_name" validate:"required,max=255"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Mobile       string  `json:"mobile" validate:"required,numeric,min=10,max=15"`
	AddressLine1 *string `json:"address_line1,omitempty" validate:"omitempty,max=255"`
	AddressLine2 *string `json:"address_line2,omitempty" validate:"omitempty,max=255"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode   *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country      *string `json:"country,omitempty" validate:"omitempty,max=100"`
	TaxID        *string `json:"tax_id,omitempty" validate:"omitempty,max=20"`

	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
}

func NewSubmitDonationRequestFromContext(ctx echo.Context, defaultCurrency string) (*SubmitDonationRequest, error) {
	var body SubmitDonationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	if body.Currency == "" {
		body.Currency = strings.ToUpper(defaultCurrency)
	}
	body.DonationType = strings.ToLower(strings.TrimSpace(body.DonationType))
	body.DedicationMessage = trimPtr(body.DedicationMessage)
	body.FullName = strings.TrimSpace(body.FullName)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Mobile = strings.TrimPrefix(strings.TrimSpace(body.Mobile), "+")
	body.AddressLine1 = trimPtr(body.AddressLine1)
	body.AddressLine2 = trimPtr(body.AddressLine2)
	body.City = trimPtr(body.City)
	body.State = trimPtr(body.State)
	body.PostalCode = trimPtr(body.PostalCode)
	body.Country = trimPtr(body.Country)
	body.TaxID = trimPtr(body.TaxID)
	body.ReturnURL = strings.TrimSpace(body.ReturnURL)

	return &body, nil
}

func (r *SubmitDonationRequest) Validate() error {
	return validateStruct(r)
}

type GetDonationRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

func NewGetDonationRequestFromContext(ctx echo.Context) (*GetDonationRequest, error) {
	return &GetDonationRequest{ID: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *GetDonationRequest) Validate() error {
	return validateStruct(r)
}

type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Mobile   string `json:"mobile,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
}

type DonationResponse struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id,omitempty"`
	OrderID           string        `json:"order_id"`
	Amount            string        `json:"amount"`
	Currency          string        `json:"currency"`
	DonationType      string        `json:"donation_type"`
	IsAnonymous       bool          `json:"is_anonymous"`
	DedicationMessage string        `json:"dedication_message,omitempty"`
	PaymentStatus     string        `json:"payment_status"`
	PaymentID         string        `json:"payment_id,omitempty"`
	PaymentGateway    string        `json:"payment_gateway"`
	PaymentMethod     string        `json:"payment_method,omitempty"`
	ReceiptNumber     string        `json:"receipt_number"`
	CreatedAt         string        `json:"created_at"`
	UpdatedAt         string        `json:"updated_at"`
	CompletedAt       string        `json:"completed_at,omitempty"`
	User              *UserResponse `json:"user,omitempty"`
}

type DonationEnvelopeResponse struct {
	Success  bool              `json:"success"`
	Donation *DonationResponse `json:"donation"`
}

type SubmitDonationResponse struct {
	Success          bool              `json:"success"`
	Donation         *DonationResponse `json:"donation"`
	OrderID          string            `json:"order_id"`
	PaymentSessionID string            `json:"payment_session_id"`
	CheckoutURL      string            `json:"checkout_url"`
}

type ListDonationsResponse struct {
	Success   bool                `json:"success"`
	Donations []*DonationResponse `json:"donations"`
}
