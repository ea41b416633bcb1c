package entity

import "time"

type User struct {
	ID string

	Email    string
	FullName string
	Mobile   *string

	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	PostalCode   *string
	Country      *string

	TaxID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
