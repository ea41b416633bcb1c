package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrDonationNotFound      = errors.New("donation not found")
	ErrDonationAlreadyExists = errors.New("donation already exists")
	ErrStatusConflict        = errors.New("donation status changed concurrently")
)

const donationColumns = `d.id, d.user_id, d.order_id, d.amount, d.currency, d.donation_type, d.is_anonymous,
	d.dedication_message, d.payment_status, d.payment_id, d.payment_gateway, d.payment_session_id,
	d.payment_method, d.receipt_number, d.created_at, d.updated_at, d.completed_at`

type DonationFilter struct {
	Status entity.DonationStatus
	UserID string
	Limit  int32
	Offset int32
}

type StatusTotal struct {
	Status entity.DonationStatus
	Count  int64
	Amount decimal.Decimal
}

type TypeTotal struct {
	DonationType string
	Count        int64
	Amount       decimal.Decimal
}

type DonationStats struct {
	ByStatus     []StatusTotal
	ByType       []TypeTotal
	UniqueDonors int64
}

type DonationRepository struct {
	db DBTX
}

func NewDonationRepository(db DBTX) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}

	query := `
		INSERT INTO user_donations (
			id, user_id, order_id, amount, currency, donation_type, is_anonymous,
			dedication_message, payment_status, payment_id, payment_gateway, payment_session_id,
			payment_method, receipt_number, created_at, updated_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		donation.ID,
		nullableStringValue(donation.UserID),
		donation.OrderID,
		donation.Amount,
		donation.Currency,
		donation.DonationType,
		donation.IsAnonymous,
		nullableStringValue(donation.DedicationMessage),
		string(donation.PaymentStatus),
		nullableStringValue(donation.PaymentID),
		donation.PaymentGateway,
		nullableStringValue(donation.PaymentSessionID),
		nullableStringValue(donation.PaymentMethod),
		donation.ReceiptNumber,
		donation.CreatedAt.UTC(),
		donation.UpdatedAt.UTC(),
		nullableTimeValue(donation.CompletedAt),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDonationAlreadyExists
		}
		return err
	}
	return nil
}

// UpdatePayment writes the payment fields of donation only if the stored
// status still equals expected. A row that moved on in the meantime yields
// ErrStatusConflict and is left untouched.
func (r *DonationRepository) UpdatePayment(ctx context.Context, donation *entity.Donation, expected entity.DonationStatus) error {
	query := `
		UPDATE user_donations SET
			payment_status = ?,
			payment_id = ?,
			payment_method = ?,
			payment_session_id = ?,
			completed_at = ?,
			updated_at = ?
		WHERE id = ? AND payment_status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(donation.PaymentStatus),
		nullableStringValue(donation.PaymentID),
		nullableStringValue(donation.PaymentMethod),
		nullableStringValue(donation.PaymentSessionID),
		nullableTimeValue(donation.CompletedAt),
		donation.UpdatedAt.UTC(),
		donation.ID,
		string(expected),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	existing, err := r.FindByID(ctx, donation.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrDonationNotFound
	}
	return ErrStatusConflict
}

func (r *DonationRepository) UpdateSessionID(ctx context.Context, id, sessionID string, now time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE user_donations SET payment_session_id = ?, updated_at = ?
		WHERE id = ?
	`, sessionID, now.UTC(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDonationNotFound
	}
	return nil
}

// FailStalePending moves every pending donation last touched before cutoff
// to failed in a single statement and reports how many rows changed.
func (r *DonationRepository) FailStalePending(ctx context.Context, cutoff, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE user_donations SET payment_status = ?, updated_at = ?
		WHERE payment_status = ? AND updated_at < ?
	`, string(entity.DonationStatusFailed), now.UTC(), string(entity.DonationStatusPending), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *DonationRepository) FindByID(ctx context.Context, id string) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM user_donations d WHERE d.id = ?`

	donation := &entity.Donation{}
	if err := scanDonation(r.db.QueryRowContext(ctx, query, id), donation); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return donation, nil
}

func (r *DonationRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM user_donations d WHERE d.order_id = ? LIMIT 1`

	donation := &entity.Donation{}
	if err := scanDonation(r.db.QueryRowContext(ctx, query, orderID), donation); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return donation, nil
}

// List returns donations newest first, each joined with its donor when one is linked.
func (r *DonationRepository) List(ctx context.Context, filter DonationFilter) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `,
			u.id, u.email, u.full_name, u.mobile, u.city, u.country
		FROM user_donations d
		LEFT JOIN users u ON u.id = d.user_id
	`

	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Status != "" {
		conditions = append(conditions, "d.payment_status = ?")
		args = append(args, string(filter.Status))
	}
	if strings.TrimSpace(filter.UserID) != "" {
		conditions = append(conditions, "d.user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY d.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]*entity.Donation, 0)
	for rows.Next() {
		item, err := scanDonationWithUser(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return donations, nil
}

// ListStalePending returns pending donations whose last update is older than cutoff.
func (r *DonationRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM user_donations d
		WHERE d.payment_status = ?
		  AND d.updated_at < ?
		ORDER BY d.updated_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(entity.DonationStatusPending), cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]*entity.Donation, 0)
	for rows.Next() {
		item := &entity.Donation{}
		if err := scanDonation(rows, item); err != nil {
			return nil, err
		}
		donations = append(donations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *DonationRepository) Stats(ctx context.Context) (*DonationStats, error) {
	stats := &DonationStats{
		ByStatus: make([]StatusTotal, 0, 4),
		ByType:   make([]TypeTotal, 0),
	}

	statusRows, err := r.db.QueryContext(ctx, `
		SELECT payment_status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM user_donations
		GROUP BY payment_status
		ORDER BY payment_status
	`)
	if err != nil {
		return nil, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var item StatusTotal
		var status string
		if err := statusRows.Scan(&status, &item.Count, &item.Amount); err != nil {
			return nil, err
		}
		item.Status = entity.DonationStatus(status)
		stats.ByStatus = append(stats.ByStatus, item)
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := r.db.QueryContext(ctx, `
		SELECT donation_type, COUNT(*), COALESCE(SUM(amount), 0)
		FROM user_donations
		WHERE payment_status = ?
		GROUP BY donation_type
		ORDER BY donation_type
	`, string(entity.DonationStatusCompleted))
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var item TypeTotal
		if err := typeRows.Scan(&item.DonationType, &item.Count, &item.Amount); err != nil {
			return nil, err
		}
		stats.ByType = append(stats.ByType, item)
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM user_donations
		WHERE payment_status = ? AND user_id IS NOT NULL
	`, string(entity.DonationStatusCompleted)).Scan(&stats.UniqueDonors)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func scanDonation(scan rowScanner, donation *entity.Donation) error {
	nulls := &donationNulls{}
	if err := scan.Scan(donationScanTargets(donation, nulls)...); err != nil {
		return err
	}
	nulls.apply(donation)
	return nil
}

type donationNulls struct {
	userID            sql.NullString
	dedicationMessage sql.NullString
	status            string
	paymentID         sql.NullString
	paymentSessionID  sql.NullString
	paymentMethod     sql.NullString
	completedAt       sql.NullTime
}

func donationScanTargets(donation *entity.Donation, n *donationNulls) []interface{} {
	return []interface{}{
		&donation.ID,
		&n.userID,
		&donation.OrderID,
		&donation.Amount,
		&donation.Currency,
		&donation.DonationType,
		&donation.IsAnonymous,
		&n.dedicationMessage,
		&n.status,
		&n.paymentID,
		&donation.PaymentGateway,
		&n.paymentSessionID,
		&n.paymentMethod,
		&donation.ReceiptNumber,
		&donation.CreatedAt,
		&donation.UpdatedAt,
		&n.completedAt,
	}
}

func (n *donationNulls) apply(donation *entity.Donation) {
	donation.UserID = stringPtrFromNull(n.userID)
	donation.DedicationMessage = stringPtrFromNull(n.dedicationMessage)
	donation.PaymentStatus = entity.DonationStatus(n.status)
	donation.PaymentID = stringPtrFromNull(n.paymentID)
	donation.PaymentSessionID = stringPtrFromNull(n.paymentSessionID)
	donation.PaymentMethod = stringPtrFromNull(n.paymentMethod)
	donation.CompletedAt = timePtrFromNull(n.completedAt)
	donation.CreatedAt = donation.CreatedAt.UTC()
	donation.UpdatedAt = donation.UpdatedAt.UTC()
}

func scanDonationWithUser(rows *sql.Rows) (*entity.Donation, error) {
	donation := &entity.Donation{}
	nulls := &donationNulls{}
	var (
		userID      sql.NullString
		userEmail   sql.NullString
		userName    sql.NullString
		userMobile  sql.NullString
		userCity    sql.NullString
		userCountry sql.NullString
	)

	targets := append(donationScanTargets(donation, nulls),
		&userID, &userEmail, &userName, &userMobile, &userCity, &userCountry,
	)
	if err := rows.Scan(targets...); err != nil {
		return nil, err
	}
	nulls.apply(donation)

	if userID.Valid {
		donation.User = &entity.User{
			ID:       userID.String,
			Email:    userEmail.String,
			FullName: userName.String,
			Mobile:   stringPtrFromNull(userMobile),
			City:     stringPtrFromNull(userCity),
			Country:  stringPtrFromNull(userCountry),
		}
	}
	return donation, nil
}
