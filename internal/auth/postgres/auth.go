package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/auth"
	userdm "github.com/opsdesk/ops-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(email string) (*auth.User, error) {
	var dm userdm.User
	if err := r.db.Where("email = ?", email).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&dm), nil
}

func (r *Repository) GetByID(userID int64) (*auth.User, error) {
	var dm userdm.User
	if err := r.db.First(&dm, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&dm), nil
}

func toDomain(dm *userdm.User) *auth.User {
	return &auth.User{
		ID:            dm.ID,
		Email:         dm.Email,
		FirstName:     dm.FirstName,
		LastName:      dm.LastName,
		Role:          auth.Role(dm.Role),
		PhoneNumber:   dm.PhoneNumber,
		TwoFactorMode: auth.TwoFactorMode(dm.TwoFactorMode),
		IsActive:      dm.IsActive,
		PasswordHash:  dm.PasswordHash,
	}
}

// RefreshTokenRepository stores refresh-token ids in the refresh_tokens table.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

func (r *RefreshTokenRepository) Store(jti string, userID int64, expiresAt time.Time) error {
	record := userdm.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	return r.db.Create(&record).Error
}

// Consume deletes the jti row and reports whether it was still present. The
// delete doubles as the liveness check, so concurrent consumers of the same
// token cannot both win.
func (r *RefreshTokenRepository) Consume(jti string) (bool, error) {
	result := r.db.Where("jti = ? AND expires_at > ?", jti, time.Now()).Delete(&userdm.RefreshToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// PurgeExpired removes rows whose expiry has passed. Called opportunistically
// from the server's background ticker.
func (r *RefreshTokenRepository) PurgeExpired() (int64, error) {
	result := r.db.Where("expires_at <= ?", time.Now()).Delete(&userdm.RefreshToken{})
	return result.RowsAffected, result.Error
}
