package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/opsdesk/ops-management/internal"
	twofactordm "github.com/opsdesk/ops-management/internal/core/datamodel/twofactor"
	userdm "github.com/opsdesk/ops-management/internal/core/datamodel/user"
	"github.com/opsdesk/ops-management/internal/twofactor"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByUserID(userID int64) (*twofactor.Device, error) {
	var dm twofactordm.TOTPDevice
	if err := r.db.Where("user_id = ?", userID).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &twofactor.Device{
		ID:        dm.ID,
		UserID:    dm.UserID,
		Secret:    dm.Secret,
		Confirmed: dm.Confirmed,
	}, nil
}

func (r *Repository) Save(d *twofactor.Device) error {
	dm := twofactordm.TOTPDevice{
		ID:        d.ID,
		UserID:    d.UserID,
		Secret:    d.Secret,
		Confirmed: d.Confirmed,
	}
	if err := r.db.Save(&dm).Error; err != nil {
		return err
	}
	d.ID = dm.ID
	return nil
}

func (r *Repository) DeleteByUserID(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&twofactordm.TOTPDevice{}).Error
}

// UserStore backs the device registry's view of the users table.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{
		db: db,
	}
}

func (s *UserStore) GetPasswordHash(userID int64) (string, error) {
	var hash string
	err := s.db.Model(&userdm.User{}).Where("id = ?", userID).Pluck("password_hash", &hash).Error
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", internal.ErrUserNotFound
	}
	return hash, nil
}

func (s *UserStore) GetTwoFactorMode(userID int64) (string, error) {
	var dm userdm.User
	if err := s.db.Select("two_factor_mode").First(&dm, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", internal.ErrUserNotFound
		}
		return "", err
	}
	return dm.TwoFactorMode, nil
}

func (s *UserStore) SetTwoFactorMode(userID int64, mode string) error {
	result := s.db.Model(&userdm.User{}).Where("id = ?", userID).Update("two_factor_mode", mode)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
