package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/ops-management/internal"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockUserRepository struct {
	byEmail map[string]*User
	byID    map[int64]*User
}

func newMockUserRepository() *mockUserRepository {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	users := []*User{
		{ID: 1, Email: "plain@example.com", FirstName: "Priya", LastName: "Nair", Role: RoleSoftwareEngineer, TwoFactorMode: ModeNone, IsActive: true, PasswordHash: string(hash)},
		{ID: 2, Email: "email2fa@example.com", FirstName: "Arjun", LastName: "Mehta", Role: RoleManager, TwoFactorMode: ModeEmail, IsActive: true, PasswordHash: string(hash)},
		{ID: 3, Email: "sms2fa@example.com", FirstName: "Sana", LastName: "Khan", Role: RoleHRManager, PhoneNumber: "+919812345678", TwoFactorMode: ModeSMS, IsActive: true, PasswordHash: string(hash)},
		{ID: 4, Email: "app2fa@example.com", FirstName: "Dev", LastName: "Rao", Role: RoleSystemAdmin, TwoFactorMode: ModeApp, IsActive: true, PasswordHash: string(hash)},
		{ID: 5, Email: "inactive@example.com", FirstName: "Old", LastName: "Account", Role: RoleSupportExec, TwoFactorMode: ModeNone, IsActive: false, PasswordHash: string(hash)},
	}

	repo := &mockUserRepository{
		byEmail: make(map[string]*User),
		byID:    make(map[int64]*User),
	}
	for _, u := range users {
		repo.byEmail[u.Email] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (m *mockUserRepository) GetByEmail(email string) (*User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUserRepository) GetByID(userID int64) (*User, error) {
	if u, ok := m.byID[userID]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

type mockRefreshRepo struct {
	live map[string]int64
}

func newMockRefreshRepo() *mockRefreshRepo {
	return &mockRefreshRepo{live: make(map[string]int64)}
}

func (m *mockRefreshRepo) Store(jti string, userID int64, expiresAt time.Time) error {
	m.live[jti] = userID
	return nil
}

func (m *mockRefreshRepo) Consume(jti string) (bool, error) {
	if _, ok := m.live[jti]; !ok {
		return false, nil
	}
	delete(m.live, jti)
	return true, nil
}

type mockOTPService struct {
	codes          map[int64]string
	emailSent      []string
	smsSent        []string
	generateErr    error
	emailDispatch  error
	smsDispatch    error
	verifyConsumes bool
}

func newMockOTPService() *mockOTPService {
	return &mockOTPService{codes: make(map[int64]string), verifyConsumes: true}
}

func (m *mockOTPService) Generate(ctx context.Context, userID int64) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	code := fmt.Sprintf("%06d", 100000+int(userID))
	m.codes[userID] = code
	return code, nil
}

func (m *mockOTPService) Verify(ctx context.Context, userID int64, code string) bool {
	stored, ok := m.codes[userID]
	if !ok || stored != code {
		return false
	}
	if m.verifyConsumes {
		delete(m.codes, userID)
	}
	return true
}

func (m *mockOTPService) DispatchEmail(ctx context.Context, email, firstName, code string) error {
	if m.emailDispatch != nil {
		return m.emailDispatch
	}
	m.emailSent = append(m.emailSent, email)
	return nil
}

func (m *mockOTPService) DispatchSMS(ctx context.Context, phoneNumber, code string) error {
	if m.smsDispatch != nil {
		return m.smsDispatch
	}
	m.smsSent = append(m.smsSent, phoneNumber)
	return nil
}

type mockDeviceVerifier struct {
	confirmed map[int64]bool
	validCode string
}

func (m *mockDeviceVerifier) HasConfirmedDevice(userID int64) (bool, error) {
	return m.confirmed[userID], nil
}

func (m *mockDeviceVerifier) VerifyCode(userID int64, code string) (bool, error) {
	return m.confirmed[userID] && code == m.validCode, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		userRepo *mockUserRepository
		refresh  *mockRefreshRepo
		otp      *mockOTPService
		devices  *mockDeviceVerifier
		tokenGen *JWTTokenGenerator
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		userRepo = newMockUserRepository()
		refresh = newMockRefreshRepo()
		otp = newMockOTPService()
		devices = &mockDeviceVerifier{confirmed: map[int64]bool{}, validCode: "654321"}
		tokenGen = NewJWTTokenGenerator("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
		service = NewService(userRepo, refresh, tokenGen, otp, devices, slog.Default())
		ctx = context.Background()
	})

	ginkgo.Describe("Login without second factor", func() {
		ginkgo.It("should return a token pair for valid credentials", func() {
			result, err := service.Login(ctx, LoginDTO{Email: "plain@example.com", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(result.RefreshToken).ToNot(gomega.BeEmpty())
			gomega.Expect(result.Role).To(gomega.Equal("SOFTWARE_ENGINEER"))
			gomega.Expect(result.FullName).To(gomega.Equal("Priya Nair"))
		})

		ginkgo.It("should never generate or dispatch a one-time code", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "plain@example.com", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(otp.codes).To(gomega.BeEmpty())
			gomega.Expect(otp.emailSent).To(gomega.BeEmpty())
			gomega.Expect(otp.smsSent).To(gomega.BeEmpty())
		})

		ginkgo.It("should return the same error for unknown email and wrong password", func() {
			_, unknownErr := service.Login(ctx, LoginDTO{Email: "nobody@example.com", Password: "whatever"})
			_, wrongErr := service.Login(ctx, LoginDTO{Email: "plain@example.com", Password: "wrong_password"})

			gomega.Expect(unknownErr).To(gomega.MatchError(internal.ErrInvalidCredentials))
			gomega.Expect(wrongErr).To(gomega.MatchError(internal.ErrInvalidCredentials))
			gomega.Expect(unknownErr.Error()).To(gomega.Equal(wrongErr.Error()))
		})

		ginkgo.It("should reject inactive users even with the right password", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "inactive@example.com", Password: "correct_password"})

			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserInactive))
		})
	})

	ginkgo.Describe("Login with email one-time code", func() {
		ginkgo.It("should challenge and dispatch a code when otp is omitted", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password"})

			gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))
			gomega.Expect(otp.emailSent).To(gomega.ConsistOf("email2fa@example.com"))

			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(string(appErr.Code)).To(gomega.Equal("2FA_REQUIRED"))
			gomega.Expect(appErr.Message).To(gomega.ContainSubstring("email2fa@example.com"))
		})

		ginkgo.It("should complete the two round-trip protocol", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))

			code := otp.codes[2]
			gomega.Expect(code).ToNot(gomega.BeEmpty())

			result, err := service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password", OTP: code})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should reject a wrong code without dispatching a replacement", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))

			_, err = service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password", OTP: "000000"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidOTP))
			gomega.Expect(otp.emailSent).To(gomega.HaveLen(1))
		})

		ginkgo.It("should reject a replayed code", func() {
			_, _ = service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password"})
			code := otp.codes[2]

			_, err := service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password", OTP: code})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password", OTP: code})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidOTP))
		})

		ginkgo.It("should still challenge when email dispatch fails", func() {
			otp.emailDispatch = errors.New("smtp down")

			_, err := service.Login(ctx, LoginDTO{Email: "email2fa@example.com", Password: "correct_password"})

			gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))

			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Message).To(gomega.Equal("2FA code required."))
		})
	})

	ginkgo.Describe("Login with sms one-time code", func() {
		ginkgo.It("should dispatch to the phone and mask it in the challenge", func() {
			_, err := service.Login(ctx, LoginDTO{Email: "sms2fa@example.com", Password: "correct_password"})

			gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))
			gomega.Expect(otp.smsSent).To(gomega.ConsistOf("+919812345678"))

			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Message).To(gomega.ContainSubstring("5678"))
			gomega.Expect(appErr.Message).ToNot(gomega.ContainSubstring("+919812345678"))
		})

		ginkgo.It("should fall back to a generic challenge when sms dispatch fails", func() {
			otp.smsDispatch = errors.New("gateway timeout")

			_, err := service.Login(ctx, LoginDTO{Email: "sms2fa@example.com", Password: "correct_password"})

			gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))

			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Message).To(gomega.Equal("2FA code required."))
		})
	})

	ginkgo.Describe("Login with authenticator app", func() {
		ginkgo.It("should skip the challenge entirely when no device is confirmed", func() {
			result, err := service.Login(ctx, LoginDTO{Email: "app2fa@example.com", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(otp.codes).To(gomega.BeEmpty())
		})

		ginkgo.Context("with a confirmed device", func() {
			ginkgo.BeforeEach(func() {
				devices.confirmed[4] = true
			})

			ginkgo.It("should challenge when otp is omitted without dispatching anything", func() {
				_, err := service.Login(ctx, LoginDTO{Email: "app2fa@example.com", Password: "correct_password"})

				gomega.Expect(err).To(gomega.MatchError(internal.ErrSecondFactorRequired))
				gomega.Expect(otp.emailSent).To(gomega.BeEmpty())
				gomega.Expect(otp.smsSent).To(gomega.BeEmpty())
			})

			ginkgo.It("should accept the current authenticator code", func() {
				result, err := service.Login(ctx, LoginDTO{Email: "app2fa@example.com", Password: "correct_password", OTP: "654321"})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.AccessToken).ToNot(gomega.BeEmpty())
			})

			ginkgo.It("should reject a wrong authenticator code", func() {
				_, err := service.Login(ctx, LoginDTO{Email: "app2fa@example.com", Password: "correct_password", OTP: "111111"})

				gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidOTP))
			})
		})
	})

	ginkgo.Describe("SendOTP", func() {
		ginkgo.It("should return the same message for known and unknown emails", func() {
			knownMsg := service.SendOTP(ctx, SendOTPDTO{Email: "email2fa@example.com"})
			unknownMsg := service.SendOTP(ctx, SendOTPDTO{Email: "nobody@example.com"})

			gomega.Expect(knownMsg).To(gomega.Equal(unknownMsg))
		})

		ginkgo.It("should dispatch a code for a known account", func() {
			service.SendOTP(ctx, SendOTPDTO{Email: "email2fa@example.com"})

			gomega.Expect(otp.emailSent).To(gomega.ConsistOf("email2fa@example.com"))
		})

		ginkgo.It("should not dispatch anything for an inactive account", func() {
			service.SendOTP(ctx, SendOTPDTO{Email: "inactive@example.com"})

			gomega.Expect(otp.emailSent).To(gomega.BeEmpty())
			gomega.Expect(otp.smsSent).To(gomega.BeEmpty())
		})

		ginkgo.It("should use the sms channel when requested", func() {
			service.SendOTP(ctx, SendOTPDTO{Email: "sms2fa@example.com", Channel: "sms"})

			gomega.Expect(otp.smsSent).To(gomega.ConsistOf("+919812345678"))
			gomega.Expect(otp.emailSent).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		var firstPair *LoginResult

		ginkgo.BeforeEach(func() {
			var err error
			firstPair, err = service.Login(ctx, LoginDTO{Email: "plain@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should rotate the refresh token", func() {
			newPair, err := service.RefreshTokens(ctx, firstPair.RefreshToken)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(newPair.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(newPair.RefreshToken).ToNot(gomega.Equal(firstPair.RefreshToken))
		})

		ginkgo.It("should reject a replayed refresh token after rotation", func() {
			_, err := service.RefreshTokens(ctx, firstPair.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, firstPair.RefreshToken)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenRevoked))
		})

		ginkgo.It("should reject a refresh token after logout", func() {
			err := service.Logout(ctx, firstPair.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, firstPair.RefreshToken)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenRevoked))
		})

		ginkgo.It("should reject a malformed token", func() {
			_, err := service.RefreshTokens(ctx, "not.a.token")

			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("should reject an expired refresh token", func() {
			expiredGen := NewJWTTokenGenerator("test-access-secret", "test-refresh-secret", -time.Hour, -time.Hour)
			user, _ := userRepo.GetByID(1)
			expired, _, _, err := expiredGen.GenerateRefreshToken(user)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, expired)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("should reject an access token presented as a refresh token", func() {
			_, err := service.RefreshTokens(ctx, firstPair.AccessToken)

			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("should return the claims carried by the token", func() {
			pair, err := service.Login(ctx, LoginDTO{Email: "plain@example.com", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(pair.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(int64(1)))
			gomega.Expect(claims.Email).To(gomega.Equal("plain@example.com"))
			gomega.Expect(claims.Role).To(gomega.Equal("SOFTWARE_ENGINEER"))
		})

		ginkgo.It("should reject an expired access token", func() {
			expiredGen := NewJWTTokenGenerator("test-access-secret", "test-refresh-secret", -time.Hour, time.Hour)
			user, _ := userRepo.GetByID(1)
			expired, err := expiredGen.GenerateAccessToken(user)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(expired)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})
	})
})
