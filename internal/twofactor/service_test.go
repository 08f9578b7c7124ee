package twofactor

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/ops-management/internal"
)

func TestTwoFactor(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "TwoFactor Module Suite")
}

type memDeviceRepo struct {
	devices map[int64]*Device
	nextID  int64
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{devices: make(map[int64]*Device), nextID: 1}
}

func (m *memDeviceRepo) GetByUserID(userID int64) (*Device, error) {
	d, ok := m.devices[userID]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (m *memDeviceRepo) Save(d *Device) error {
	if d.ID == 0 {
		d.ID = m.nextID
		m.nextID++
	}
	copied := *d
	m.devices[d.UserID] = &copied
	return nil
}

func (m *memDeviceRepo) DeleteByUserID(userID int64) error {
	delete(m.devices, userID)
	return nil
}

type memUserStore struct {
	hashes map[int64]string
	modes  map[int64]string
}

func (m *memUserStore) GetPasswordHash(userID int64) (string, error) {
	h, ok := m.hashes[userID]
	if !ok {
		return "", internal.ErrUserNotFound
	}
	return h, nil
}

func (m *memUserStore) GetTwoFactorMode(userID int64) (string, error) {
	mode, ok := m.modes[userID]
	if !ok {
		return "", internal.ErrUserNotFound
	}
	return mode, nil
}

func (m *memUserStore) SetTwoFactorMode(userID int64, mode string) error {
	if _, ok := m.modes[userID]; !ok {
		return internal.ErrUserNotFound
	}
	m.modes[userID] = mode
	return nil
}

var _ = ginkgo.Describe("TwoFactor Service", func() {
	var (
		devices *memDeviceRepo
		users   *memUserStore
		service *Service
		ctx     context.Context
	)

	const userID int64 = 7

	currentCode := func(secret string) string {
		code, err := totp.GenerateCode(secret, time.Now())
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return code
	}

	ginkgo.BeforeEach(func() {
		hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
		devices = newMemDeviceRepo()
		users = &memUserStore{
			hashes: map[int64]string{userID: string(hash)},
			modes:  map[int64]string{userID: "EMAIL"},
		}
		service = NewService(devices, users, "OpsDesk", slog.Default())
		ctx = context.Background()
	})

	ginkgo.Describe("Setup", func() {
		ginkgo.It("should provision an unconfirmed device with a scannable payload", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Secret).ToNot(gomega.BeEmpty())
			gomega.Expect(result.OTPAuthURL).To(gomega.HavePrefix("otpauth://totp/"))
			gomega.Expect(result.OTPAuthURL).To(gomega.ContainSubstring("OpsDesk"))
			gomega.Expect(result.QRCode).To(gomega.HavePrefix("data:image/png;base64,"))

			device, _ := devices.GetByUserID(userID)
			gomega.Expect(device).ToNot(gomega.BeNil())
			gomega.Expect(device.Confirmed).To(gomega.BeFalse())
		})

		ginkgo.It("should replace a pending secret on repeated setup", func() {
			first, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.Secret).ToNot(gomega.Equal(first.Secret))

			device, _ := devices.GetByUserID(userID)
			gomega.Expect(device.Secret).To(gomega.Equal(second.Secret))
		})

		ginkgo.It("should refuse setup while a confirmed device exists", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Confirm(ctx, userID, currentCode(result.Secret))).To(gomega.Succeed())

			_, err = service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAlreadyEnabled))
		})
	})

	ginkgo.Describe("Confirm", func() {
		ginkgo.It("should flip the device and switch the user to APP mode", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			err = service.Confirm(ctx, userID, currentCode(result.Secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			device, _ := devices.GetByUserID(userID)
			gomega.Expect(device.Confirmed).To(gomega.BeTrue())
			gomega.Expect(users.modes[userID]).To(gomega.Equal("APP"))
		})

		ginkgo.It("should reject a wrong code and stay unconfirmed", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			wrong := "000000"
			if currentCode(result.Secret) == wrong {
				wrong = "000001"
			}

			err = service.Confirm(ctx, userID, wrong)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidOTP))

			device, _ := devices.GetByUserID(userID)
			gomega.Expect(device.Confirmed).To(gomega.BeFalse())
			gomega.Expect(users.modes[userID]).To(gomega.Equal("EMAIL"))
		})

		ginkgo.It("should require setup before confirmation", func() {
			err := service.Confirm(ctx, userID, "123456")

			gomega.Expect(err).To(gomega.MatchError(internal.ErrSetupRequired))
		})

		ginkgo.It("should refuse to confirm twice", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Confirm(ctx, userID, currentCode(result.Secret))).To(gomega.Succeed())

			err = service.Confirm(ctx, userID, currentCode(result.Secret))
			gomega.Expect(err).To(gomega.MatchError(internal.ErrAlreadyEnabled))
		})
	})

	ginkgo.Describe("Disable", func() {
		ginkgo.BeforeEach(func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Confirm(ctx, userID, currentCode(result.Secret))).To(gomega.Succeed())
		})

		ginkgo.It("should remove the device after a password recheck", func() {
			err := service.Disable(ctx, userID, "correct_password")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			device, _ := devices.GetByUserID(userID)
			gomega.Expect(device).To(gomega.BeNil())
			gomega.Expect(users.modes[userID]).To(gomega.Equal("EMAIL"))
		})

		ginkgo.It("should refuse with a wrong password", func() {
			err := service.Disable(ctx, userID, "wrong_password")

			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))
			device, _ := devices.GetByUserID(userID)
			gomega.Expect(device).ToNot(gomega.BeNil())
		})
	})

	ginkgo.Describe("UpdateMode", func() {
		ginkgo.It("should switch between the code-based modes freely", func() {
			gomega.Expect(service.UpdateMode(ctx, userID, "SMS")).To(gomega.Succeed())
			gomega.Expect(users.modes[userID]).To(gomega.Equal("SMS"))

			gomega.Expect(service.UpdateMode(ctx, userID, "NONE")).To(gomega.Succeed())
			gomega.Expect(users.modes[userID]).To(gomega.Equal("NONE"))
		})

		ginkgo.It("should reject APP without a confirmed device", func() {
			err := service.UpdateMode(ctx, userID, "APP")

			gomega.Expect(err).To(gomega.MatchError(internal.ErrSetupRequired))
			gomega.Expect(users.modes[userID]).To(gomega.Equal("EMAIL"))
		})

		ginkgo.It("should allow APP once a device is confirmed", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Confirm(ctx, userID, currentCode(result.Secret))).To(gomega.Succeed())

			gomega.Expect(service.UpdateMode(ctx, userID, "SMS")).To(gomega.Succeed())
			gomega.Expect(service.UpdateMode(ctx, userID, "APP")).To(gomega.Succeed())
		})

		ginkgo.It("should reject unknown modes", func() {
			err := service.UpdateMode(ctx, userID, "CARRIER_PIGEON")

			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidAuthType))
		})
	})

	ginkgo.Describe("DeviceVerifier", func() {
		ginkgo.It("should not count an unconfirmed device", func() {
			_, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			confirmed, err := service.HasConfirmedDevice(userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(confirmed).To(gomega.BeFalse())
		})

		ginkgo.It("should verify codes only against a confirmed device", func() {
			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			ok, err := service.VerifyCode(userID, currentCode(result.Secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())

			gomega.Expect(service.Confirm(ctx, userID, currentCode(result.Secret))).To(gomega.Succeed())

			ok, err = service.VerifyCode(userID, currentCode(result.Secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("GetStatus", func() {
		ginkgo.It("should report mode and confirmation state", func() {
			status, err := service.GetStatus(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(status.Mode).To(gomega.Equal("EMAIL"))
			gomega.Expect(status.DeviceConfirmed).To(gomega.BeFalse())

			result, err := service.Setup(ctx, userID, "user@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Confirm(ctx, userID, currentCode(result.Secret))).To(gomega.Succeed())

			status, err = service.GetStatus(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(status.Mode).To(gomega.Equal("APP"))
			gomega.Expect(status.DeviceConfirmed).To(gomega.BeTrue())
		})
	})
})

var _ = ginkgo.Describe("QR payload", func() {
	ginkgo.It("should embed the account into the provisioning url", func() {
		devices := newMemDeviceRepo()
		users := &memUserStore{hashes: map[int64]string{}, modes: map[int64]string{1: "EMAIL"}}
		service := NewService(devices, users, "OpsDesk", slog.Default())

		result, err := service.Setup(context.Background(), 1, "qr@example.com")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(strings.Contains(result.OTPAuthURL, "qr%40example.com") ||
			strings.Contains(result.OTPAuthURL, "qr@example.com")).To(gomega.BeTrue())
	})
})
