package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountID is the stable unique identifier assigned at registration
type AccountID = uuid.UUID

// Role is an account's access tier
type Role string

const (
	RoleStandard Role = "standard"
	RoleUpgraded Role = "upgraded"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known tiers
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleUpgraded, RoleAdmin:
		return true
	}
	return false
}

// CanManageAccounts reports whether the role may use admin operations
func (r Role) CanManageAccounts() bool {
	return r == RoleAdmin
}

// CanUseSaveData reports whether the role may read or write save slots
func (r Role) CanUseSaveData() bool {
	return r == RoleUpgraded || r == RoleAdmin
}

// Account is a registered user account
type Account struct {
	ID        AccountID  `json:"id"`
	Username  string     `json:"username"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	Banned    bool       `json:"banned"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`

	// Credential material. Never serialized; only the password service and
	// the storage layer touch these fields.
	PasswordHash []byte `json:"-"`
	Salt         []byte `json:"-"`
}

// Sanitized returns a copy with credential material cleared, for use in any
// outward-facing representation
func (a Account) Sanitized() Account {
	a.PasswordHash = nil
	a.Salt = nil
	return a
}
