package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

type DonationEventRepository struct {
	db DBTX
}

func NewDonationEventRepository(db DBTX) *DonationEventRepository {
	return &DonationEventRepository{db: db}
}

func (r *DonationEventRepository) Create(ctx context.Context, event *entity.DonationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := `
		INSERT INTO donation_events (
			id, donation_id, event_type, old_status, new_status, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var oldStatus interface{}
	if event.OldStatus != nil {
		oldStatus = string(*event.OldStatus)
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.DonationID,
		event.EventType,
		oldStatus,
		string(event.NewStatus),
		nullableStringValue(event.PayloadJSON),
		event.CreatedAt.UTC(),
	)
	return err
}

func (r *DonationEventRepository) ListByDonation(ctx context.Context, donationID string) ([]*entity.DonationEvent, error) {
	query := `
		SELECT id, donation_id, event_type, old_status, new_status, payload_json, created_at
		FROM donation_events
		WHERE donation_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*entity.DonationEvent, 0)
	for rows.Next() {
		var (
			item      entity.DonationEvent
			oldStatus sql.NullString
			newStatus string
			payload   sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.DonationID, &item.EventType, &oldStatus, &newStatus, &payload, &item.CreatedAt); err != nil {
			return nil, err
		}
		if oldStatus.Valid {
			s := entity.DonationStatus(oldStatus.String)
			item.OldStatus = &s
		}
		item.NewStatus = entity.DonationStatus(newStatus)
		item.PayloadJSON = stringPtrFromNull(payload)
		events = append(events, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
