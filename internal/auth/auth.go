package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TwoFactorMode selects the step-up challenge a user faces after the
// password check.
type TwoFactorMode string

const (
	ModeNone  TwoFactorMode = "NONE"
	ModeApp   TwoFactorMode = "APP"
	ModeEmail TwoFactorMode = "EMAIL"
	ModeSMS   TwoFactorMode = "SMS"
)

func (m TwoFactorMode) Valid() bool {
	switch m {
	case ModeNone, ModeApp, ModeEmail, ModeSMS:
		return true
	}
	return false
}

// User is the internal domain model used by services and middleware.
// PasswordHash is populated only on the credential lookup path.
type User struct {
	ID            int64         `json:"id"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Role          Role          `json:"role"`
	PhoneNumber   string        `json:"phone_number,omitempty"`
	TwoFactorMode TwoFactorMode `json:"two_factor_mode"`
	IsActive      bool          `json:"is_active"`
	PasswordHash  string        `json:"-"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Claims are the JWT claims carried by both token types. Role and email ride
// along so the client can render without a second round trip.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is the successful login payload: the token pair plus the
// display fields the frontend needs immediately.
type LoginResult struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
}

// TokenGenerator creates and validates the access/refresh token pair.
type TokenGenerator interface {
	GenerateAccessToken(u *User) (string, error)
	GenerateRefreshToken(u *User) (token string, jti string, expiresAt time.Time, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// UserRepository is the credential-store port of the orchestrator.
type UserRepository interface {
	GetByEmail(email string) (*User, error)
	GetByID(userID int64) (*User, error)
}

// RefreshTokenRepository tracks live refresh-token ids. Consume removes the
// jti and reports whether it was still live; rotation is Consume + Store.
type RefreshTokenRepository interface {
	Store(jti string, userID int64, expiresAt time.Time) error
	Consume(jti string) (bool, error)
}

// OTPService is the one-time-code collaborator used for the EMAIL and SMS
// modes. Verify is fail-closed: any miss (absent, expired, wrong) is false.
type OTPService interface {
	Generate(ctx context.Context, userID int64) (string, error)
	Verify(ctx context.Context, userID int64, code string) bool
	DispatchEmail(ctx context.Context, email, firstName, code string) error
	DispatchSMS(ctx context.Context, phoneNumber, code string) error
}

// DeviceVerifier is the authenticator-device collaborator used for APP mode.
type DeviceVerifier interface {
	HasConfirmedDevice(userID int64) (bool, error)
	VerifyCode(userID int64, code string) (bool, error)
}

// ServiceAPI is what the HTTP handler sees.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	SendOTP(ctx context.Context, dto SendOTPDTO) string
	RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUser(userID int64) (*User, error)
}
