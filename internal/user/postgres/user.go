package postgres

import (
	"context"
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

func (r *Repository) Create(u *auth.User, passwordHash string) error {
	dm := userdm.User{
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PasswordHash:  passwordHash,
		Role:          string(u.Role),
		PhoneNumber:   u.PhoneNumber,
		TwoFactorMode: string(u.TwoFactorMode),
		IsActive:      u.IsActive,
	}
	if err := r.db.Create(&dm).Error; err != nil {
		return err
	}
	u.ID = dm.ID
	return nil
}

func (r *Repository) GetByID(userID int64) (*auth.User, error) {
	var dm userdm.User
	if err := r.db.First(&dm, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.User{
		ID:            dm.ID,
		Email:         dm.Email,
		FirstName:     dm.FirstName,
		LastName:      dm.LastName,
		Role:          auth.Role(dm.Role),
		PhoneNumber:   dm.PhoneNumber,
		TwoFactorMode: auth.TwoFactorMode(dm.TwoFactorMode),
		IsActive:      dm.IsActive,
	}, nil
}

func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&userdm.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *Repository) GetPasswordHash(userID int64) (string, error) {
	var dm userdm.User
	if err := r.db.Select("password_hash").First(&dm, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", internal.ErrUserNotFound
		}
		return "", err
	}
	return dm.PasswordHash, nil
}

func (r *Repository) UpdatePassword(userID int64, passwordHash string) error {
	result := r.db.Model(&userdm.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// ApproverIDs returns active users whose role can resolve approval requests.
// Backs the unassigned-approval notification fan-out.
func (r *Repository) ApproverIDs(ctx context.Context) ([]int64, error) {
	roles := auth.ApproverRoles()
	roleStrings := make([]string, 0, len(roles))
	for _, role := range roles {
		roleStrings = append(roleStrings, string(role))
	}

	var ids []int64
	err := r.db.WithContext(ctx).Model(&userdm.User{}).
		Where("role IN ? AND is_active = ?", roleStrings, true).
		Pluck("id", &ids).Error
	return ids, err
}
