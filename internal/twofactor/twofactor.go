package twofactor

import (
	"context"
)

// Device is the domain view of a TOTP enrollment. At most one device exists
// per user; a confirmed device stays confirmed until disabled.
type Device struct {
	ID        int64
	UserID    int64
	Secret    string
	Confirmed bool
}

// SetupResult is what the enrollment endpoint returns: the shared secret for
// manual entry, the otpauth:// URL, and a QR code rendered as a PNG data URI.
type SetupResult struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     string `json:"qr_code"`
}

// Status reports the user's current second-factor configuration.
type Status struct {
	Mode            string `json:"two_factor_mode"`
	DeviceConfirmed bool   `json:"device_confirmed"`
}

// DeviceRepository stores TOTP enrollments. GetByUserID returns (nil, nil)
// when the user has no device.
type DeviceRepository interface {
	GetByUserID(userID int64) (*Device, error)
	Save(d *Device) error
	DeleteByUserID(userID int64) error
}

// UserStore is the slice of the user store the device registry needs:
// credential recheck on disable and the two-factor mode switch.
type UserStore interface {
	GetPasswordHash(userID int64) (string, error)
	GetTwoFactorMode(userID int64) (string, error)
	SetTwoFactorMode(userID int64, mode string) error
}

// ServiceAPI is what the HTTP handler sees.
type ServiceAPI interface {
	GetStatus(ctx context.Context, userID int64) (*Status, error)
	Setup(ctx context.Context, userID int64, email string) (*SetupResult, error)
	Confirm(ctx context.Context, userID int64, code string) error
	Disable(ctx context.Context, userID int64, password string) error
	UpdateMode(ctx context.Context, userID int64, mode string) error
}
