package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/ops-management/internal"
)

// Service is the authentication orchestrator: credential check, conditional
// second-factor challenge, token issuance and refresh rotation. It keeps no
// state between calls beyond the stored one-time code and refresh-token ids.
type Service struct {
	userRepo    UserRepository
	refreshRepo RefreshTokenRepository
	tokenGen    TokenGenerator
	otp         OTPService
	devices     DeviceVerifier
	logger      *slog.Logger
}

func NewService(userRepo UserRepository, refreshRepo RefreshTokenRepository, tokenGen TokenGenerator, otp OTPService, devices DeviceVerifier, logger *slog.Logger) *Service {
	return &Service{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		tokenGen:    tokenGen,
		otp:         otp,
		devices:     devices,
		logger:      logger,
	}
}

// Login runs one round of the login protocol. For EMAIL/SMS users without an
// otp in the request this call generates and dispatches a fresh code as a
// side effect and fails with a 2FA_REQUIRED challenge; the client repeats the
// call with the code to finish.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(dto.Email)
	if err != nil {
		// Same failure for unknown email and wrong password.
		return nil, internal.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)) != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if err := s.checkSecondFactor(ctx, user, dto.OTP); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *Service) checkSecondFactor(ctx context.Context, user *User, otp string) error {
	switch user.TwoFactorMode {
	case ModeApp:
		confirmed, err := s.devices.HasConfirmedDevice(user.ID)
		if err != nil {
			return internal.NewInternalError("failed to check authenticator device", err)
		}
		if !confirmed {
			// APP mode without a confirmed device is inert.
			return nil
		}
		if otp == "" {
			return internal.ErrSecondFactorRequired.WithMessage("Authenticator code required.")
		}
		ok, err := s.devices.VerifyCode(user.ID, otp)
		if err != nil {
			return internal.NewInternalError("failed to verify authenticator code", err)
		}
		if !ok {
			return internal.ErrInvalidOTP
		}
		return nil

	case ModeEmail, ModeSMS:
		if otp != "" {
			if !s.otp.Verify(ctx, user.ID, otp) {
				return internal.ErrInvalidOTP
			}
			return nil
		}
		return s.challenge(ctx, user)

	default:
		return nil
	}
}

// challenge generates a fresh code, dispatches it over the configured channel
// and returns the 2FA_REQUIRED error the client acts on. Dispatch failures
// are logged but still produce a challenge: transport health is not leaked to
// the caller.
func (s *Service) challenge(ctx context.Context, user *User) error {
	code, err := s.otp.Generate(ctx, user.ID)
	if err != nil {
		return internal.NewInternalError("failed to generate one-time code", err)
	}

	msg := "2FA code required."
	if user.TwoFactorMode == ModeSMS {
		if err := s.otp.DispatchSMS(ctx, user.PhoneNumber, code); err != nil {
			s.logger.Error("sms otp dispatch failed", "user_id", user.ID, "error", err)
		} else {
			msg = fmt.Sprintf("OTP sent to your phone ending in %s.", maskPhone(user.PhoneNumber))
		}
	} else {
		if err := s.otp.DispatchEmail(ctx, user.Email, user.FirstName, code); err != nil {
			s.logger.Error("email otp dispatch failed", "user_id", user.ID, "error", err)
		} else {
			msg = fmt.Sprintf("OTP sent to %s.", user.Email)
		}
	}

	return internal.ErrSecondFactorRequired.WithMessage(msg)
}

func (s *Service) issueTokens(user *User) (*LoginResult, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(user)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate access token", err)
	}

	refreshToken, jti, expiresAt, err := s.tokenGen.GenerateRefreshToken(user)
	if err != nil {
		return nil, internal.NewInternalError("failed to generate refresh token", err)
	}
	if err := s.refreshRepo.Store(jti, user.ID, expiresAt); err != nil {
		return nil, internal.NewInternalError("failed to store refresh token", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         string(user.Role),
		Email:        user.Email,
		FullName:     user.FullName(),
	}, nil
}

// SendOTP backs the anti-enumeration resend endpoint: the returned message is
// identical whether or not the account exists.
func (s *Service) SendOTP(ctx context.Context, dto SendOTPDTO) string {
	const genericMsg = "If the account exists, an OTP has been sent."

	if err := dto.Validate(); err != nil {
		return genericMsg
	}

	user, err := s.userRepo.GetByEmail(dto.Email)
	if err != nil || !user.IsActive {
		return genericMsg
	}

	code, err := s.otp.Generate(ctx, user.ID)
	if err != nil {
		s.logger.Error("otp generation failed", "error", err)
		return genericMsg
	}

	if dto.Channel == "sms" {
		if err := s.otp.DispatchSMS(ctx, user.PhoneNumber, code); err != nil {
			s.logger.Error("sms otp dispatch failed", "user_id", user.ID, "error", err)
		}
	} else {
		if err := s.otp.DispatchEmail(ctx, user.Email, user.FirstName, code); err != nil {
			s.logger.Error("email otp dispatch failed", "user_id", user.ID, "error", err)
		}
	}

	return genericMsg
}

// RefreshTokens rotates the refresh token: the presented token's jti must
// still be live, is consumed, and a fresh pair is issued. A replayed token
// therefore fails with TOKEN_REVOKED.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokenGen.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	live, err := s.refreshRepo.Consume(claims.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to consume refresh token", err)
	}
	if !live {
		return nil, internal.ErrTokenRevoked
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, internal.ErrUserInactive
	}

	return s.issueTokens(user)
}

// Logout revokes the presented refresh token. Consuming an already-dead jti
// is fine: logout is idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenGen.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if _, err := s.refreshRepo.Consume(claims.ID); err != nil {
		return internal.NewInternalError("failed to revoke refresh token", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateAccessToken(tokenString)
}

func (s *Service) GetUser(userID int64) (*User, error) {
	return s.userRepo.GetByID(userID)
}

func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return phone[len(phone)-4:]
}

// JWTTokenGenerator signs HS256 token pairs with separate secrets per token
// type. Refresh tokens carry a uuid jti used for rotation tracking.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(u *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("%d", u.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(u *User) (string, string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.RefreshTokenTTL)
	jti := uuid.NewString()

	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("%d", u.ID),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.RefreshTokenSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, jti, expiresAt, nil
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, internal.ErrInvalidToken
}

// HashPassword creates a bcrypt hash at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
