package entity

import "time"

const (
	WebhookLogProcessed int32 = 10
	WebhookLogRejected  int32 = 20
)

type WebhookLog struct {
	ID string

	DonationID *string

	Gateway     string
	EventType   string
	Signature   string
	PayloadJSON string
	Status      int32
	Error       *string

	CreatedAt time.Time
}
