package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var ErrAdminAlreadyExists = errors.New("admin already exists")

type AdminRepository struct {
	db DBTX
}

func NewAdminRepository(db DBTX) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, admin *entity.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	admin.Email = normalizeEmail(admin.Email)

	query := `
		INSERT INTO admin (id, email, is_active, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		admin.ID,
		admin.Email,
		admin.IsActive,
		admin.Role,
		admin.CreatedAt.UTC(),
		admin.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrAdminAlreadyExists
		}
		return err
	}
	return nil
}

// FindActiveByEmail returns nil when no active admin row matches email.
func (r *AdminRepository) FindActiveByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	query := `
		SELECT id, email, is_active, role, created_at, updated_at
		FROM admin
		WHERE email = ? AND is_active = ?
		LIMIT 1
	`

	admin := &entity.Admin{}
	err := r.db.QueryRowContext(ctx, query, normalizeEmail(email), true).Scan(
		&admin.ID,
		&admin.Email,
		&admin.IsActive,
		&admin.Role,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]*entity.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, is_active, role, created_at, updated_at
		FROM admin
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := make([]*entity.Admin, 0)
	for rows.Next() {
		var item entity.Admin
		if err := rows.Scan(&item.ID, &item.Email, &item.IsActive, &item.Role, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return admins, nil
}
