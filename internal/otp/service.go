package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/ops-management/internal"
)

// CodeTTL bounds how long a one-time code stays verifiable.
const CodeTTL = 5 * time.Minute

const keyPrefix = "otp:"

// Mailer delivers a one-time code over email.
type Mailer interface {
	SendOTP(ctx context.Context, to, firstName, code string) error
}

// SMSSender delivers a one-time code over sms.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

// Service issues and verifies short-lived numeric codes backed by redis.
// Writing a new code for a user overwrites the previous one, so at most one
// code per user is ever live.
type Service struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	mailer Mailer
	sms    SMSSender
	logger *slog.Logger
}

func NewService(rdb redis.UniversalClient, mailer Mailer, sms SMSSender, logger *slog.Logger) *Service {
	return &Service{
		rdb:    rdb,
		ttl:    CodeTTL,
		mailer: mailer,
		sms:    sms,
		logger: logger,
	}
}

// Generate creates a fresh 6-digit code and stores it under the user's key
// with the TTL attached. The SET replaces any earlier code.
func (s *Service) Generate(ctx context.Context, userID int64) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	key := fmt.Sprintf("%s%d", keyPrefix, userID)
	if err := s.rdb.Set(ctx, key, code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code against the stored one and consumes it on
// a match. Any miss, whether the code is absent, expired or simply wrong,
// reports false; the stored code survives wrong guesses until its TTL ends.
func (s *Service) Verify(ctx context.Context, userID int64, code string) bool {
	if code == "" {
		return false
	}

	key := fmt.Sprintf("%s%d", keyPrefix, userID)
	stored, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("otp lookup failed", "user_id", userID, "error", err)
		}
		return false
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Error("otp consume failed", "user_id", userID, "error", err)
		return false
	}
	return true
}

func (s *Service) DispatchEmail(ctx context.Context, email, firstName, code string) error {
	return s.mailer.SendOTP(ctx, email, firstName, code)
}

func (s *Service) DispatchSMS(ctx context.Context, phoneNumber, code string) error {
	if phoneNumber == "" {
		return internal.ErrPhoneMissing
	}
	message := fmt.Sprintf("Your OpsDesk verification code is %s. It expires in %d minutes.", code, int(s.ttl.Minutes()))
	return s.sms.Send(ctx, phoneNumber, message)
}

// randomCode draws a uniform 6-digit code from crypto/rand.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
