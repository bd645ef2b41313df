package entity

import (
	"database/sql"
	"time"
)

// User is the single identity record shared by local (password) and
// Google-federated accounts. PasswordHash is NULL for federated-only users,
// GoogleID is NULL for local-only users; linking fills both.
type User struct {
	ID              uint64
	Email           string
	PasswordHash    sql.NullString
	Username        string
	Birthday        time.Time
	ProfileImage    sql.NullString
	IsActive        bool
	IsEmailVerified bool
	IsSuperuser     bool
	GoogleID        sql.NullString
	LastLoginAt     sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RevokedToken records a refresh token that must no longer be accepted.
// ExpiresAt mirrors the token's own expiry so rows can be pruned once the
// token would fail validation anyway. UserID is nullable so the row survives
// deletion of the owning user.
type RevokedToken struct {
	ID        uint64
	Token     string
	UserID    sql.NullInt64
	Reason    sql.NullString
	RevokedAt time.Time
	ExpiresAt time.Time
}
