package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

type EmailSettingRepository struct {
	db DBTX
}

func NewEmailSettingRepository(db DBTX) *EmailSettingRepository {
	return &EmailSettingRepository{db: db}
}

func (r *EmailSettingRepository) List(ctx context.Context) ([]*entity.EmailSetting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, setting_key, setting_value, updated_by, updated_at
		FROM email_settings
		ORDER BY setting_key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*entity.EmailSetting, 0)
	for rows.Next() {
		var (
			item      entity.EmailSetting
			updatedBy sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Key, &item.Value, &updatedBy, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.UpdatedBy = stringPtrFromNull(updatedBy)
		settings = append(settings, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Get returns nil when key has never been set.
func (r *EmailSettingRepository) Get(ctx context.Context, key string) (*entity.EmailSetting, error) {
	var (
		item      entity.EmailSetting
		updatedBy sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, setting_key, setting_value, updated_by, updated_at
		FROM email_settings
		WHERE setting_key = ?
	`, key).Scan(&item.ID, &item.Key, &item.Value, &updatedBy, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.UpdatedBy = stringPtrFromNull(updatedBy)
	return &item, nil
}

// Upsert updates the row for key, inserting it when absent. A concurrent
// insert of the same key falls back to the update path.
func (r *EmailSettingRepository) Upsert(ctx context.Context, key, value string, updatedBy *string, now time.Time) error {
	updated, err := r.update(ctx, key, value, updatedBy, now)
	if err != nil || updated {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO email_settings (id, setting_key, setting_value, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), key, value, nullableStringValue(updatedBy), now.UTC())
	if err != nil && isDuplicateEntryError(err) {
		_, err = r.update(ctx, key, value, updatedBy, now)
	}
	return err
}

func (r *EmailSettingRepository) update(ctx context.Context, key, value string, updatedBy *string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE email_settings
		SET setting_value = ?, updated_by = ?, updated_at = ?
		WHERE setting_key = ?
	`, value, nullableStringValue(updatedBy), now.UTC(), key)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
