package notification

import "time"

type Notification struct {
	ID          int64     `gorm:"primaryKey"`
	RecipientID int64     `gorm:"column:recipient_id;not null;index"`
	Title       string    `gorm:"column:title;not null"`
	Message     string    `gorm:"column:message"`
	Link        string    `gorm:"column:link"`
	IsRead      bool      `gorm:"column:is_read;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
