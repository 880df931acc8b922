package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is a person known to the service. Clients, writers and admins
// share the record and differ only by role flags.
type Profile struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	IsActive        bool
	IsWriter        bool
	IsAdmin         bool
	Rating          decimal.Decimal
	CompletedOrders int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins the name parts.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Role identifies a profile flag that staff can toggle.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWriter Role = "writer"
)

// Capabilities is the privilege set resolved for one identity.
type Capabilities struct {
	Admin  bool `json:"admin"`
	Writer bool `json:"writer"`
}

// PasswordReset is a pending reset request. Only the token digest is stored.
type PasswordReset struct {
	TokenHash string
	ProfileID uuid.UUID
	ExpiresAt time.Time
	UsedAt    *time.Time
}
