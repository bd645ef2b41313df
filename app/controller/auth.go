package controller

import (
	"errors"
	"net/http"
	"time"

	httpdto "github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/dto/http"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Stable error code strings surfaced to callers. Declined operations carry
// exactly one of these; internal diagnostic detail stays in the logs.
const (
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInternalError      = "INTERNAL_SERVER_ERROR"
	codeUnauthorized       = "UNAUTHORIZED"
	codeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	codeTokenExpired       = "TOKEN_EXPIRED"
	codeTokenInvalid       = "TOKEN_INVALID"
	codeAlreadyVerified    = "ALREADY_VERIFIED"
	codeRegisterFailed     = "REGISTER_FAILED"
	codeWeakPassword       = "WEAK_PASSWORD"
	codeUserNotFound       = "USER_NOT_FOUND"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	codeLogoutFailed       = "LOGOUT_FAILED"
	codePasswordMismatch   = "PASSWORD_MISMATCH"
)

const birthdayLayout = "2006-01-02"

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) RequestVerification(ctx echo.Context) error {
	var req httpdto.RequestVerificationRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind request verification request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	logrus.WithField("email", req.Email).Info("Verification code requested")
	if err := c.authService.RequestVerificationCode(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			logrus.WithField("email", req.Email).Warn("Verification request failed: email already exists")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: codeEmailAlreadyExists})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Verification request failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "verification code sent"})
}

func (c *AuthController) VerifyCode(ctx echo.Context) error {
	var req httpdto.VerifyCodeRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind verify code request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	if err := c.authService.VerifyCode(ctx.Request().Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrCodeExpired):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeTokenExpired})
		case errors.Is(err, service.ErrCodeInvalid):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeTokenInvalid})
		case errors.Is(err, service.ErrAlreadyVerified):
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: codeAlreadyVerified})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Verify code failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	logrus.WithField("email", req.Email).Info("Email verified")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email verified"})
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req httpdto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	birthday, err := time.Parse(birthdayLayout, req.Birthday)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.authService.Register(ctx.Request().Context(), req.Email, req.Password, req.Username, birthday)
	if err != nil {
		if errors.Is(err, service.ErrRegistrationDenied) {
			logrus.WithField("email", req.Email).Warn("Register failed: not verified or already registered")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeRegisterFailed})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeWeakPassword})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, httpdto.RegisterResponse{
		UserID:          user.ID,
		Email:           user.Email,
		Username:        user.Username,
		IsEmailVerified: user.IsEmailVerified,
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	pair, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			logrus.WithField("email", req.Email).Warn("Login failed: user not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: codeUserNotFound})
		case errors.Is(err, service.ErrInvalidCredentials):
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeInvalidCredentials})
		case errors.Is(err, service.ErrEmailNotVerified):
			logrus.WithField("email", req.Email).Warn("Login failed: email not verified")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: codeEmailNotVerified})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	var req httpdto.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind logout request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	revoked, err := c.authService.Logout(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrLogoutFailed) {
			logrus.Warn("Logout failed: invalid refresh token")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeLogoutFailed})
		}
		logrus.WithError(err).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	logrus.WithField("user_id", revoked.UserID.Int64).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.LogoutResponse{
		Token:     revoked.Token,
		RevokedAt: revoked.RevokedAt,
		ExpiresAt: revoked.ExpiresAt,
	})
}

func (c *AuthController) Refresh(ctx echo.Context) error {
	var req httpdto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Refresh failed: invalid or revoked refresh token")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
		}
		logrus.WithError(err).Error("Refresh failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	return ctx.JSON(http.StatusOK, httpdto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	var req httpdto.RequestPasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err := c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Password reset failed: user not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: codeUserNotFound})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset request failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password reset code sent"})
}

func (c *AuthController) ConfirmPasswordReset(ctx echo.Context) error {
	var req httpdto.ConfirmPasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset confirm request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	err := c.authService.ConfirmPasswordReset(ctx.Request().Context(),
		req.Email, req.Code, req.NewPassword, req.NewPasswordCheck)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codePasswordMismatch})
		case errors.Is(err, service.ErrUserNotFound):
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: codeUserNotFound})
		case errors.Is(err, service.ErrCodeExpired):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeTokenExpired})
		case errors.Is(err, service.ErrCodeInvalid):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeTokenInvalid})
		case errors.Is(err, service.ErrWeakPassword):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeWeakPassword})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset confirm failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	logrus.WithField("email", req.Email).Info("Password reset")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password reset successfully"})
}

func (c *AuthController) Me(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}
	isSuperuser, _ := ctx.Get("is_superuser").(bool)

	return ctx.JSON(http.StatusOK, httpdto.MeResponse{
		UserID:      userID,
		IsSuperuser: isSuperuser,
	})
}

func (c *AuthController) RevokedTokens(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeUnauthorized})
	}

	tokens, err := c.authService.RevokedTokens(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Listing revoked tokens failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	resp := make([]httpdto.LogoutResponse, 0, len(tokens))
	for _, rt := range tokens {
		resp = append(resp, httpdto.LogoutResponse{
			Token:     rt.Token,
			RevokedAt: rt.RevokedAt,
			ExpiresAt: rt.ExpiresAt,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}
