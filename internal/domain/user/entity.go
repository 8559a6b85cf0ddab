package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleParent  Role = "parent"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// User represents a user account. The two credit balances are a cached
// projection of the credit_transactions ledger; they are only ever mutated
// by the credit repository inside a transaction.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	DisplayName  string    `db:"display_name"`
	Locale       string    `db:"locale"`

	FreeCreditsBalance int `db:"free_credits_balance"`
	PaidCreditsBalance int `db:"paid_credits_balance"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsCreator returns true if user can publish resources
func (u *User) IsCreator() bool {
	return u.Role == RoleCreator || u.Role == RoleAdmin
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TotalCredits returns the sum of both pools
func (u *User) TotalCredits() int {
	return u.FreeCreditsBalance + u.PaidCreditsBalance
}

// ValidRoles returns list of valid roles for registration
func ValidRoles() []Role {
	return []Role{RoleParent, RoleCreator}
}

// IsValidRole checks if role is valid for registration
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if string(r) == role {
			return true
		}
	}
	return false
}
