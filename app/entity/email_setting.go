package entity

import "time"

const (
	EmailSettingReceiptsEnabled   = "receipt_emails_enabled"
	EmailSettingSenderName        = "sender_name"
	EmailSettingSenderEmail       = "sender_email"
	EmailSettingReceiptSubject    = "receipt_subject"
	EmailSettingAdminNotification = "admin_notification_email"
)

type EmailSetting struct {
	ID        string
	Key       string
	Value     string
	UpdatedBy *string
	UpdatedAt time.Time
}
