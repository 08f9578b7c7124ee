package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/auth"
	"github.com/opsdesk/ops-management/internal/core/events"
)

const requestModelName = "ApprovalRequest"

// Service runs the generic approval workflow: create against a registered
// subject, list under role visibility, resolve exactly once.
type Service struct {
	repo     Repository
	registry *Registry
	eventBus *events.EventBus
	audit    AuditRecorder
	logger   *slog.Logger
}

func NewService(repo Repository, registry *Registry, eventBus *events.EventBus, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		eventBus: eventBus,
		audit:    audit,
		logger:   logger,
	}
}

// Create opens a PENDING request after validating the subject reference
// against its registered binding.
func (s *Service) Create(ctx context.Context, user *auth.User, dto CreateDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	subjectType := SubjectType(dto.SubjectType)
	binding, ok := s.registry.Lookup(subjectType)
	if !ok {
		return nil, internal.ErrUnknownSubject.WithMessage(fmt.Sprintf("Unknown subject type %q.", dto.SubjectType))
	}

	exists, err := binding.Exists(ctx, dto.SubjectID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check approval subject", err)
	}
	if !exists {
		return nil, internal.ErrSubjectNotFound
	}

	req := &Request{
		RequesterID: user.ID,
		ApproverID:  dto.ApproverID,
		Status:      StatusPending,
		SubjectType: subjectType,
		SubjectID:   dto.SubjectID,
		Comments:    dto.Comments,
	}
	if err := s.repo.Create(req); err != nil {
		return nil, internal.NewInternalError("failed to create approval request", err)
	}

	s.logger.Info("approval request created",
		"approval_id", req.ID,
		"requester_id", user.ID,
		"subject_type", subjectType,
		"subject_id", dto.SubjectID)

	event := events.NewApprovalCreatedEvent(req.ID, user.ID, user.FullName(), dto.ApproverID, string(subjectType), dto.SubjectID)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish approval created event", "approval_id", req.ID, "error", err)
	}

	s.audit.Record(ctx, "CREATE", requestModelName, req.ID,
		fmt.Sprintf("Approval requested for %s %d", subjectType, dto.SubjectID))

	return req, nil
}

// Get returns one request if the caller's visibility tier covers it.
func (s *Service) Get(ctx context.Context, user *auth.User, id int64) (*Request, error) {
	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !s.visible(user, req) {
		// Hidden rows read as absent, not forbidden.
		return nil, internal.ErrApprovalNotFound
	}
	return req, nil
}

// List returns the requests the caller's role tier may see: everything for
// admins and HR, own plus assigned for managers, own only for everyone else.
func (s *Service) List(ctx context.Context, user *auth.User, limit, offset int) ([]*Request, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	switch auth.ApprovalVisibilityFor(user.Role) {
	case auth.VisibilityAll:
		return s.repo.ListAll(limit, offset)
	case auth.VisibilityAssigned:
		return s.repo.ListVisibleTo(user.ID, limit, offset)
	default:
		return s.repo.ListByRequester(user.ID, limit, offset)
	}
}

// Resolve moves a PENDING request to APPROVED or REJECTED exactly once. The
// conditional update in the repository is the arbiter under concurrency: the
// loser of a race gets ALREADY_RESOLVED, same as a late sequential caller.
func (s *Service) Resolve(ctx context.Context, user *auth.User, id int64, dto ResolveDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !auth.CanResolveApprovals(user.Role) {
		return nil, internal.ErrUnauthorizedAccess
	}

	status, err := StatusFor(Action(dto.Action))
	if err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, internal.ErrAlreadyResolved
	}

	won, err := s.repo.Resolve(id, status, user.ID, dto.Comments)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve approval request", err)
	}
	if !won {
		return nil, internal.ErrAlreadyResolved
	}

	if binding, ok := s.registry.Lookup(req.SubjectType); ok {
		if err := binding.ApplyOutcome(ctx, req.SubjectID, status, user.ID); err != nil {
			// The request is resolved; the subject is now behind. Log loudly.
			s.logger.Error("failed to apply approval outcome to subject",
				"approval_id", id,
				"subject_type", req.SubjectType,
				"subject_id", req.SubjectID,
				"error", err)
		}
	}

	s.logger.Info("approval request resolved",
		"approval_id", id,
		"status", status,
		"approver_id", user.ID)

	event := events.NewApprovalResolvedEvent(id, req.RequesterID, user.ID, string(status), string(req.SubjectType), req.SubjectID)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish approval resolved event", "approval_id", id, "error", err)
	}

	s.audit.Record(ctx, string(dto.Action), requestModelName, id,
		fmt.Sprintf("Approval for %s %d marked %s", req.SubjectType, req.SubjectID, status))

	return s.repo.GetByID(id)
}

func (s *Service) visible(user *auth.User, req *Request) bool {
	switch auth.ApprovalVisibilityFor(user.Role) {
	case auth.VisibilityAll:
		return true
	case auth.VisibilityAssigned:
		if req.ApproverID != nil && *req.ApproverID == user.ID {
			return true
		}
		return req.RequesterID == user.ID
	default:
		return req.RequesterID == user.ID
	}
}
