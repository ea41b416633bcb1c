package entity

import "time"

type DonationEvent struct {
	ID string

	DonationID string

	EventType string

	OldStatus *DonationStatus
	NewStatus DonationStatus

	PayloadJSON *string

	CreatedAt time.Time
}
