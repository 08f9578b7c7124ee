package user

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/auth"
)

// Service manages accounts. Registration is an admin operation; self-service
// signup does not exist in this system.
type Service struct {
	repo       Repository
	audit      AuditRecorder
	bcryptCost int
	logger     *slog.Logger
}

// AuditRecorder mirrors the audit module's write port.
type AuditRecorder interface {
	Record(ctx context.Context, action, modelName string, objectID int64, details string)
}

func NewService(repo Repository, audit AuditRecorder, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) Register(ctx context.Context, actor *auth.User, dto RegisterDTO) (*auth.User, error) {
	if !auth.IsAdmin(actor.Role) && !auth.IsHR(actor.Role) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := auth.Role(dto.Role)
	if dto.Role == "" {
		role = auth.RoleSoftwareEngineer
	}
	if !role.Valid() {
		return nil, internal.NewValidationError("Unknown role", internal.ErrCodeValidationFailed)
	}

	mode := auth.TwoFactorMode(dto.TwoFactorMode)
	if dto.TwoFactorMode == "" {
		mode = auth.ModeEmail
	}
	if !mode.Valid() || mode == auth.ModeApp {
		// APP requires a confirmed device, which a fresh account cannot have.
		return nil, internal.ErrInvalidAuthType
	}

	taken, err := s.repo.EmailExists(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if taken {
		return nil, internal.ErrEmailTaken
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &auth.User{
		Email:         dto.Email,
		FirstName:     dto.FirstName,
		LastName:      dto.LastName,
		Role:          role,
		PhoneNumber:   dto.PhoneNumber,
		TwoFactorMode: mode,
		IsActive:      true,
	}
	if err := s.repo.Create(u, hash); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email, "role", u.Role)
	s.audit.Record(ctx, "CREATE", "User", u.ID, "Account created for "+u.Email)

	return u, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*auth.User, error) {
	return s.repo.GetByID(userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	hash, err := s.repo.GetPasswordHash(userID)
	if err != nil {
		return internal.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(dto.OldPassword)) != nil {
		return internal.ErrInvalidCredentials.WithMessage("Old password is incorrect.")
	}
	if dto.OldPassword == dto.NewPassword {
		return internal.ErrSamePassword
	}

	newHash, err := auth.HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(userID, newHash); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.audit.Record(ctx, "UPDATE", "User", userID, "Password changed")
	return nil
}
