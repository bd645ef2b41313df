package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/dto"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/entity"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/repository"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrCodeExpired        = errors.New("verification code expired or never requested")
	ErrCodeInvalid        = errors.New("verification code does not match")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrRegistrationDenied = errors.New("email not verified or already registered")
	ErrLogoutFailed       = errors.New("refresh token invalid or expired")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error)
	LinkGoogleID(ctx context.Context, userID uint64, googleID string) error
	UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID uint64, lastLogin time.Time) error
}

type revokedTokenRepository interface {
	Create(ctx context.Context, token *entity.RevokedToken) error
	FindByToken(ctx context.Context, token string) (*entity.RevokedToken, error)
	IsRevoked(ctx context.Context, token string) (bool, error)
	FindByUserID(ctx context.Context, userID uint64) ([]entity.RevokedToken, error)
}

// verificationStore is the TTL key-value contract for the three short-lived
// secrets of the onboarding and reset flows. A Get for an absent or expired
// key returns the zero value, never an error.
type verificationStore interface {
	SetCode(ctx context.Context, email, code string) error
	GetCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
	SetVerifiedMarker(ctx context.Context, email string) error
	HasVerifiedMarker(ctx context.Context, email string) (bool, error)
	DeleteVerifiedMarker(ctx context.Context, email string) error
	SetResetCode(ctx context.Context, email, code string) error
	GetResetCode(ctx context.Context, email string) (string, error)
	DeleteResetCode(ctx context.Context, email string) error
}

type mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type AuthService interface {
	RequestVerificationCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) error
	Register(ctx context.Context, email, password, username string, birthday time.Time) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) (*entity.RevokedToken, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword, newPasswordCheck string) error
	RevokedTokens(ctx context.Context, userID uint64) ([]entity.RevokedToken, error)
}

type AsyncRunner func(task func())

type AuthServiceOption func(*authService)

type authService struct {
	userRepo    userRepository
	revokedRepo revokedTokenRepository
	codes       verificationStore
	mail        mailer
	tokens      *TokenIssuer
	cfg         *config.Config
	asyncRunner AsyncRunner
}

func NewAuthService(
	userRepo userRepository,
	revokedRepo revokedTokenRepository,
	codes verificationStore,
	mail mailer,
	tokens *TokenIssuer,
	cfg *config.Config,
	opts ...AuthServiceOption,
) AuthService {
	svc := &authService{
		userRepo:    userRepo,
		revokedRepo: revokedRepo,
		codes:       codes,
		mail:        mail,
		tokens:      tokens,
		cfg:         cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) AuthServiceOption {
	return func(s *authService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *authService) RequestVerificationCode(ctx context.Context, email string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	// Last request wins: overwrite any unconsumed code for this email.
	if err = s.codes.SetCode(ctx, email, code); err != nil {
		return err
	}

	mailCtx, cancel := context.WithTimeout(ctx, s.cfg.Tokens.MailTimeout)
	defer cancel()

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(s.cfg.Tokens.VerificationCodeTTL.Minutes()))
	return s.mail.Send(mailCtx, email, "Verify your email address", body)
}

func (s *authService) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := s.codes.GetCode(ctx, email)
	if err != nil {
		return err
	}
	if stored == "" {
		return ErrCodeExpired
	}
	if stored != code {
		return ErrCodeInvalid
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil && user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	if err = s.codes.DeleteCode(ctx, email); err != nil {
		return err
	}
	return s.codes.SetVerifiedMarker(ctx, email)
}

func (s *authService) Register(ctx context.Context, email, password, username string, birthday time.Time) (*entity.User, error) {
	verified, err := s.codes.HasVerifiedMarker(ctx, email)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, ErrRegistrationDenied
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRegistrationDenied
	}

	if err = s.cfg.Password.Policy.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Email:        email,
		PasswordHash: sql.NullString{String: string(hashedPassword), Valid: true},
		Username:     username,
		Birthday:     birthday,
		IsActive:     true,
		// The code flow already proved mailbox ownership.
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRegistrationDenied
		}
		return nil, err
	}

	if err = s.codes.DeleteVerifiedMarker(ctx, email); err != nil {
		logrus.WithError(err).WithField("email", email).Warn("failed to delete verified marker")
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*dto.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// Federated-only accounts have no password hash and cannot local-login.
	if !user.PasswordHash.Valid {
		return nil, ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	s.asyncRunner(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if updateErr := s.userRepo.UpdateLastLogin(updateCtx, user.ID, time.Now()); updateErr != nil {
			logrus.WithError(updateErr).WithField("user_id", user.ID).Error("failed to update last_login_at")
		}
	})

	return s.issuePair(user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) (*entity.RevokedToken, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, ErrLogoutFailed
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrLogoutFailed
	}

	revoked := &entity.RevokedToken{
		Token:     refreshToken,
		UserID:    sql.NullInt64{Int64: int64(userID), Valid: true},
		Reason:    sql.NullString{String: "logout", Valid: true},
		RevokedAt: time.Now(),
		ExpiresAt: claims.ExpiresAt.Time,
	}

	err = s.revokedRepo.Create(ctx, revoked)
	if errors.Is(err, repository.ErrDuplicate) {
		// Already revoked: return the existing ledger row, never a second one.
		return s.revokedRepo.FindByToken(ctx, refreshToken)
	}
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revokedRepo.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	// Rotate: the presented token is spent whether or not issuing succeeds.
	err = s.revokedRepo.Create(ctx, &entity.RevokedToken{
		Token:     refreshToken,
		UserID:    sql.NullInt64{Int64: int64(userID), Valid: true},
		Reason:    sql.NullString{String: "rotated", Valid: true},
		RevokedAt: time.Now(),
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return s.issuePair(user)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err = s.codes.SetResetCode(ctx, email, code); err != nil {
		return err
	}

	mailCtx, cancel := context.WithTimeout(ctx, s.cfg.Tokens.MailTimeout)
	defer cancel()

	body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
		code, int(s.cfg.Tokens.ResetCodeTTL.Minutes()))
	return s.mail.Send(mailCtx, email, "Reset your password", body)
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword, newPasswordCheck string) error {
	if newPassword != newPasswordCheck {
		return ErrPasswordMismatch
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	stored, err := s.codes.GetResetCode(ctx, email)
	if err != nil {
		return err
	}
	if stored == "" {
		return ErrCodeExpired
	}
	if stored != code {
		return ErrCodeInvalid
	}

	if err = s.cfg.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err = s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return err
	}

	return s.codes.DeleteResetCode(ctx, email)
}

func (s *authService) RevokedTokens(ctx context.Context, userID uint64) ([]entity.RevokedToken, error) {
	return s.revokedRepo.FindByUserID(ctx, userID)
}

func (s *authService) issuePair(user *entity.User) (*dto.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}
