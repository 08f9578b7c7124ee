package approval

import "time"

// ApprovalRequest wraps an arbitrary subject record (SubjectType + SubjectID)
// in an approve/reject workflow. Approver stays nil until someone resolves it.
type ApprovalRequest struct {
	ID          int64     `gorm:"primaryKey"`
	RequesterID int64     `gorm:"column:requester_id;not null;index"`
	ApproverID  *int64    `gorm:"column:approver_id;index"`
	Status      string    `gorm:"column:status;not null;default:PENDING"`
	SubjectType string    `gorm:"column:subject_type;not null"`
	SubjectID   int64     `gorm:"column:subject_id;not null"`
	Comments    string    `gorm:"column:comments"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}
