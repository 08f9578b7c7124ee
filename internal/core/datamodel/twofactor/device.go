package twofactor

import "time"

// TOTPDevice holds a user's authenticator-app enrollment. The secret is
// provisioned unconfirmed; the first valid code flips Confirmed permanently.
type TOTPDevice struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Secret    string    `gorm:"column:secret;not null"`
	Confirmed bool      `gorm:"column:confirmed;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TOTPDevice) TableName() string {
	return "totp_devices"
}
