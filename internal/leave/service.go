package leave

import (
	"context"
	"log/slog"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/approval"
	"github.com/opsdesk/ops-management/internal/auth"
)

// Service handles time-off requests. Every new leave opens an approval
// request; the approval engine drives the leave's status from then on.
type Service struct {
	repo      Repository
	approvals ApprovalOpener
	logger    *slog.Logger
}

func NewService(repo Repository, approvals ApprovalOpener, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		approvals: approvals,
		logger:    logger,
	}
}

// Apply stores the leave and opens its approval workflow in one go.
func (s *Service) Apply(ctx context.Context, user *auth.User, dto ApplyDTO) (*Leave, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	start, _ := dto.Start()
	end, _ := dto.End()

	l := &Leave{
		UserID:    user.ID,
		LeaveType: Type(dto.LeaveType),
		StartDate: start,
		EndDate:   end,
		Reason:    dto.Reason,
		Status:    string(approval.StatusPending),
	}
	if err := s.repo.Create(l); err != nil {
		return nil, internal.NewInternalError("failed to create leave", err)
	}

	_, err := s.approvals.Create(ctx, user, approval.CreateDTO{
		SubjectType: string(SubjectTypeLeave),
		SubjectID:   l.ID,
		ApproverID:  dto.ApproverID,
		Comments:    dto.Reason,
	})
	if err != nil {
		s.logger.Error("failed to open approval for leave", "leave_id", l.ID, "error", err)
		return nil, err
	}

	s.logger.Info("leave applied",
		"leave_id", l.ID,
		"user_id", user.ID,
		"leave_type", l.LeaveType)

	return l, nil
}

func (s *Service) Get(ctx context.Context, user *auth.User, id int64) (*Leave, error) {
	l, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l.UserID != user.ID && !auth.IsHR(user.Role) && !auth.IsAdmin(user.Role) {
		return nil, internal.ErrLeaveNotFound
	}
	return l, nil
}

// List shows everyone their own leaves; HR and admins see the whole table.
func (s *Service) List(ctx context.Context, user *auth.User, limit, offset int) ([]*Leave, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if auth.IsHR(user.Role) || auth.IsAdmin(user.Role) {
		return s.repo.ListAll(limit, offset)
	}
	return s.repo.ListByUser(user.ID, limit, offset)
}

// Binding adapts the leave store to the approval engine's subject port.
type Binding struct {
	repo   Repository
	logger *slog.Logger
}

func NewBinding(repo Repository, logger *slog.Logger) *Binding {
	return &Binding{repo: repo, logger: logger}
}

func (b *Binding) Exists(ctx context.Context, subjectID int64) (bool, error) {
	_, err := b.repo.GetByID(subjectID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeLeaveNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Binding) ApplyOutcome(ctx context.Context, subjectID int64, status approval.Status, approverID int64) error {
	if err := b.repo.SetOutcome(subjectID, string(status), approverID); err != nil {
		return err
	}
	b.logger.Info("leave outcome applied",
		"leave_id", subjectID,
		"status", status,
		"approver_id", approverID)
	return nil
}
