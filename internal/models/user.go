package models

import "time"

// Role is the account type chosen at registration.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdvisor Role = "advisor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdvisor
}

// User is a registered account. Identifier is an email, student number or staff number.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Identifier   string    `json:"identifier" db:"identifier"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
