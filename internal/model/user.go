package model

import "time"

// Role values carried in the JWT "role" claim.
const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
	RoleCustomer = "CUSTOMER"
)

// User mirrors the 'users' table.  Accounts are either registered through
// the external identity service or created by the payment reconciler for
// anonymous checkouts.
type User struct {
	ID           uint64    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CustomerProfile links a user to their passport number.  A passport may
// be linked to at most one account; booking validation relies on this.
type CustomerProfile struct {
	UserID         uint64 `json:"user_id"`
	PassportNumber string `json:"passport_number"`
	Phone          string `json:"phone"`
}
