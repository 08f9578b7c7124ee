package twofactor

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"log/slog"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/auth"
)

const qrSizePx = 256

// Service manages authenticator-app enrollments. It also implements the
// auth.DeviceVerifier port consumed by the login orchestrator.
type Service struct {
	devices DeviceRepository
	users   UserStore
	issuer  string
	logger  *slog.Logger
}

func NewService(devices DeviceRepository, users UserStore, issuer string, logger *slog.Logger) *Service {
	return &Service{
		devices: devices,
		users:   users,
		issuer:  issuer,
		logger:  logger,
	}
}

func (s *Service) GetStatus(ctx context.Context, userID int64) (*Status, error) {
	mode, err := s.users.GetTwoFactorMode(userID)
	if err != nil {
		return nil, err
	}

	confirmed := false
	if device, err := s.devices.GetByUserID(userID); err == nil && device != nil {
		confirmed = device.Confirmed
	}

	return &Status{Mode: mode, DeviceConfirmed: confirmed}, nil
}

// Setup provisions a fresh secret and returns it with a scannable QR code.
// Re-running setup before confirmation replaces the pending secret; a
// confirmed device must be disabled first.
func (s *Service) Setup(ctx context.Context, userID int64, email string) (*SetupResult, error) {
	existing, err := s.devices.GetByUserID(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check authenticator device", err)
	}
	if existing != nil && existing.Confirmed {
		return nil, internal.ErrAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to generate totp secret", err)
	}

	device := existing
	if device == nil {
		device = &Device{UserID: userID}
	}
	device.Secret = key.Secret()
	device.Confirmed = false
	if err := s.devices.Save(device); err != nil {
		return nil, internal.NewInternalError("failed to store totp device", err)
	}

	qr, err := qrDataURI(key)
	if err != nil {
		return nil, internal.NewInternalError("failed to render qr code", err)
	}

	return &SetupResult{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCode:     qr,
	}, nil
}

// Confirm validates the first authenticator code against the pending secret
// and flips the device to confirmed. The user's mode switches to APP so the
// next login is challenged.
func (s *Service) Confirm(ctx context.Context, userID int64, code string) error {
	device, err := s.devices.GetByUserID(userID)
	if err != nil {
		return internal.NewInternalError("failed to load totp device", err)
	}
	if device == nil {
		return internal.ErrSetupRequired
	}
	if device.Confirmed {
		return internal.ErrAlreadyEnabled
	}

	if !totp.Validate(code, device.Secret) {
		return internal.ErrInvalidOTP
	}

	device.Confirmed = true
	if err := s.devices.Save(device); err != nil {
		return internal.NewInternalError("failed to confirm totp device", err)
	}

	if err := s.users.SetTwoFactorMode(userID, string(auth.ModeApp)); err != nil {
		return internal.NewInternalError("failed to switch two-factor mode", err)
	}
	return nil
}

// Disable removes the enrollment after a password recheck and falls the user
// back to the email mode.
func (s *Service) Disable(ctx context.Context, userID int64, password string) error {
	hash, err := s.users.GetPasswordHash(userID)
	if err != nil {
		return internal.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return internal.ErrInvalidCredentials.WithMessage("Incorrect password.")
	}

	if err := s.devices.DeleteByUserID(userID); err != nil {
		return internal.NewInternalError("failed to remove totp device", err)
	}
	if err := s.users.SetTwoFactorMode(userID, string(auth.ModeEmail)); err != nil {
		return internal.NewInternalError("failed to switch two-factor mode", err)
	}
	return nil
}

// UpdateMode switches the user's challenge channel. APP needs a confirmed
// device; without one the switch is rejected rather than silently creating a
// mode the login flow would ignore.
func (s *Service) UpdateMode(ctx context.Context, userID int64, mode string) error {
	m := auth.TwoFactorMode(mode)
	if !m.Valid() {
		return internal.ErrInvalidAuthType
	}

	if m == auth.ModeApp {
		confirmed, err := s.HasConfirmedDevice(userID)
		if err != nil {
			return internal.NewInternalError("failed to check authenticator device", err)
		}
		if !confirmed {
			return internal.ErrSetupRequired
		}
	}

	return s.users.SetTwoFactorMode(userID, mode)
}

// HasConfirmedDevice implements auth.DeviceVerifier.
func (s *Service) HasConfirmedDevice(userID int64) (bool, error) {
	device, err := s.devices.GetByUserID(userID)
	if err != nil {
		return false, err
	}
	return device != nil && device.Confirmed, nil
}

// VerifyCode implements auth.DeviceVerifier. Only a confirmed device counts.
func (s *Service) VerifyCode(userID int64, code string) (bool, error) {
	device, err := s.devices.GetByUserID(userID)
	if err != nil || device == nil || !device.Confirmed {
		return false, nil
	}
	return totp.Validate(code, device.Secret), nil
}

func qrDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(qrSizePx, qrSizePx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
