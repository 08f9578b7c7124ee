package leave

import "time"

// Leave mirrors the status of its approval request; it never changes status
// on its own.
type Leave struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	LeaveType  string    `gorm:"column:leave_type;not null"`
	StartDate  time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate    time.Time `gorm:"column:end_date;type:date;not null"`
	Reason     string    `gorm:"column:reason"`
	Status     string    `gorm:"column:status;not null;default:PENDING"`
	ApproverID *int64    `gorm:"column:approver_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Leave) TableName() string {
	return "leaves"
}
