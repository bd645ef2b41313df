package http

import "time"

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	UserID          uint64 `json:"user_id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	IsEmailVerified bool   `json:"is_email_verified"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type LogoutResponse struct {
	Token     string    `json:"token"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MeResponse struct {
	UserID      uint64 `json:"user_id"`
	IsSuperuser bool   `json:"is_superuser"`
}

type TodoResponse struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content,omitempty"`
	IsDone    bool       `json:"is_done"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
