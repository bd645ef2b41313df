package http

import (
	"errors"
	"strings"
)

type RequestVerificationRequest struct {
	Email string `json:"email"`
}

func (r *RequestVerificationRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r *VerifyCodeRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Code) == "" {
		return errors.New("email and code are required")
	}
	return nil
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Birthday string `json:"birthday"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(r.Birthday) == "" {
		return errors.New("birthday is required")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *LogoutRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

func (r *RequestPasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type ConfirmPasswordResetRequest struct {
	Email            string `json:"email"`
	Code             string `json:"code"`
	NewPassword      string `json:"new_password"`
	NewPasswordCheck string `json:"new_password_check"`
}

func (r *ConfirmPasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Code) == "" {
		return errors.New("email and code are required")
	}
	if strings.TrimSpace(r.NewPassword) == "" || strings.TrimSpace(r.NewPasswordCheck) == "" {
		return errors.New("new_password and new_password_check are required")
	}
	return nil
}

type CreateTodoRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	DueDate string `json:"due_date"`
}

func (r *CreateTodoRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// UpdateTodoRequest carries a partial update; empty fields are left untouched.
type UpdateTodoRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	IsDone  *bool  `json:"is_done"`
	DueDate string `json:"due_date"`
}

func (r *UpdateTodoRequest) Validate() error {
	if r.Title == "" && r.Content == "" && r.IsDone == nil && r.DueDate == "" {
		return errors.New("at least one field is required")
	}
	return nil
}
