package audit

import "time"

type AuditLog struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    *int64    `gorm:"column:user_id;index"`
	UserEmail string    `gorm:"column:user_email"`
	Action    string    `gorm:"column:action;not null"`
	ModelName string    `gorm:"column:model_name;not null"`
	ObjectID  string    `gorm:"column:object_id"`
	Details   string    `gorm:"column:details"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
