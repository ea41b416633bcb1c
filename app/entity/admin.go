package entity

import "time"

const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "super_admin"
)

type Admin struct {
	ID       string
	Email    string
	IsActive bool
	Role     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
