package user

import (
	"context"

	"github.com/opsdesk/ops-management/internal/auth"
)

// Repository is the user store port for account management.
type Repository interface {
	Create(u *auth.User, passwordHash string) error
	GetByID(userID int64) (*auth.User, error)
	EmailExists(email string) (bool, error)
	GetPasswordHash(userID int64) (string, error)
	UpdatePassword(userID int64, passwordHash string) error
	ApproverIDs(ctx context.Context) ([]int64, error)
}

// ServiceAPI is what the HTTP handler sees.
type ServiceAPI interface {
	Register(ctx context.Context, actor *auth.User, dto RegisterDTO) (*auth.User, error)
	Me(ctx context.Context, userID int64) (*auth.User, error)
	ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error
}
