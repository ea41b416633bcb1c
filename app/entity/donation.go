package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusRefunded  DonationStatus = "refunded"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusPending, DonationStatusCompleted, DonationStatusFailed, DonationStatusRefunded:
		return true
	default:
		return false
	}
}

// Final reports whether no gateway event may move the donation any further.
func (s DonationStatus) Final() bool {
	return s == DonationStatusCompleted || s == DonationStatusFailed || s == DonationStatusRefunded
}

type Donation struct {
	ID     string
	UserID *string

	OrderID string

	Amount            decimal.Decimal
	Currency          string
	DonationType      string
	IsAnonymous       bool
	DedicationMessage *string

	PaymentStatus    DonationStatus
	PaymentID        *string
	PaymentGateway   string
	PaymentSessionID *string
	PaymentMethod    *string
	ReceiptNumber    string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	// Populated only by joined listings.
	User *User
}
