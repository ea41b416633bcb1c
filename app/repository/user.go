package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var ErrUserAlreadyExists = errors.New("user already exists")

const userColumns = `id, email, full_name, mobile, address_line1, address_line2, city, state, postal_code, country, tax_id, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = normalizeEmail(user.Email)

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		nullableStringValue(user.Mobile),
		nullableStringValue(user.AddressLine1),
		nullableStringValue(user.AddressLine2),
		nullableStringValue(user.City),
		nullableStringValue(user.State),
		nullableStringValue(user.PostalCode),
		nullableStringValue(user.Country),
		nullableStringValue(user.TaxID),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`

	user := &entity.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, normalizeEmail(email)), user); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user := &entity.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, id), user); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func scanUser(scan rowScanner, user *entity.User) error {
	var (
		mobile       sql.NullString
		addressLine1 sql.NullString
		addressLine2 sql.NullString
		city         sql.NullString
		state        sql.NullString
		postalCode   sql.NullString
		country      sql.NullString
		taxID        sql.NullString
	)

	err := scan.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&mobile,
		&addressLine1,
		&addressLine2,
		&city,
		&state,
		&postalCode,
		&country,
		&taxID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	user.Mobile = stringPtrFromNull(mobile)
	user.AddressLine1 = stringPtrFromNull(addressLine1)
	user.AddressLine2 = stringPtrFromNull(addressLine2)
	user.City = stringPtrFromNull(city)
	user.State = stringPtrFromNull(state)
	user.PostalCode = stringPtrFromNull(postalCode)
	user.Country = stringPtrFromNull(country)
	user.TaxID = stringPtrFromNull(taxID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
