package leave

import (
	"context"
	"time"

	"github.com/opsdesk/ops-management/internal/approval"
	"github.com/opsdesk/ops-management/internal/auth"
)

// SubjectTypeLeave is the name leaves register under in the approval registry.
const SubjectTypeLeave approval.SubjectType = "leave"

type Type string

const (
	TypeCasual    Type = "CASUAL"
	TypeSick      Type = "SICK"
	TypeEarned    Type = "EARNED"
	TypeMaternity Type = "MATERNITY"
	TypePaternity Type = "PATERNITY"
	TypeUnpaid    Type = "UNPAID"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCasual, TypeSick, TypeEarned, TypeMaternity, TypePaternity, TypeUnpaid:
		return true
	}
	return false
}

// Leave is a time-off request. Its status always mirrors the linked approval
// request; the leave module never flips it directly.
type Leave struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	LeaveType  Type      `json:"leave_type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Reason     string    `json:"reason,omitempty"`
	Status     string    `json:"status"`
	ApproverID *int64    `json:"approver_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository is the storage port for leaves.
type Repository interface {
	Create(l *Leave) error
	GetByID(id int64) (*Leave, error)
	ListByUser(userID int64, limit, offset int) ([]*Leave, error)
	ListAll(limit, offset int) ([]*Leave, error)
	SetOutcome(id int64, status string, approverID int64) error
}

// ApprovalOpener is the slice of the approval engine the leave module uses to
// open a workflow for each new leave.
type ApprovalOpener interface {
	Create(ctx context.Context, user *auth.User, dto approval.CreateDTO) (*approval.Request, error)
}

// ServiceAPI is what the HTTP handler sees.
type ServiceAPI interface {
	Apply(ctx context.Context, user *auth.User, dto ApplyDTO) (*Leave, error)
	Get(ctx context.Context, user *auth.User, id int64) (*Leave, error)
	List(ctx context.Context, user *auth.User, limit, offset int) ([]*Leave, error)
}
