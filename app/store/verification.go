package store

import (
	"context"
	"errors"
	"time"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/config"

	"github.com/redis/go-redis/v9"
)

// Key prefixes keep the three secret namespaces apart: pending verification
// codes, proof-of-verification markers, and password-reset codes. Each entry
// carries its own TTL; an expired key is indistinguishable from one that was
// never set.
const (
	codePrefix   = "verify:code:"
	markerPrefix = "verify:ok:"
	resetPrefix  = "reset:code:"
)

type VerificationStore struct {
	client   *redis.Client
	codeTTL  time.Duration
	resetTTL time.Duration
}

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func NewVerificationStore(client *redis.Client, codeTTL, resetTTL time.Duration) *VerificationStore {
	return &VerificationStore{client: client, codeTTL: codeTTL, resetTTL: resetTTL}
}

func (s *VerificationStore) SetCode(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, codePrefix+email, code, s.codeTTL).Err()
}

// GetCode returns the pending code for the email, or "" when no code is
// stored or it has expired.
func (s *VerificationStore) GetCode(ctx context.Context, email string) (string, error) {
	return s.get(ctx, codePrefix+email)
}

func (s *VerificationStore) DeleteCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, codePrefix+email).Err()
}

func (s *VerificationStore) SetVerifiedMarker(ctx context.Context, email string) error {
	return s.client.Set(ctx, markerPrefix+email, "1", s.codeTTL).Err()
}

func (s *VerificationStore) HasVerifiedMarker(ctx context.Context, email string) (bool, error) {
	v, err := s.get(ctx, markerPrefix+email)
	if err != nil {
		return false, err
	}
	return v != "", nil
}

func (s *VerificationStore) DeleteVerifiedMarker(ctx context.Context, email string) error {
	return s.client.Del(ctx, markerPrefix+email).Err()
}

func (s *VerificationStore) SetResetCode(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, resetPrefix+email, code, s.resetTTL).Err()
}

func (s *VerificationStore) GetResetCode(ctx context.Context, email string) (string, error) {
	return s.get(ctx, resetPrefix+email)
}

func (s *VerificationStore) DeleteResetCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, resetPrefix+email).Err()
}

func (s *VerificationStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
