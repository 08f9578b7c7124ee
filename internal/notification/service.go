package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/core/events"
)

// Service delivers and manages in-app notifications. It subscribes to the
// event bus so domain services never talk to it directly.
type Service struct {
	repo      Repository
	directory ApproverDirectory
	logger    *slog.Logger
}

func NewService(repo Repository, directory ApproverDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		logger:    logger,
	}
}

// RegisterEventHandlers wires the service onto the bus. Called once at boot.
func (s *Service) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeApprovalCreated, s.handleApprovalCreated)
	bus.Subscribe(events.EventTypeApprovalResolved, s.handleApprovalResolved)
}

// handleApprovalCreated notifies the assigned approver, or every user who
// could resolve the request when nobody is assigned.
func (s *Service) handleApprovalCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ApprovalCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	var recipients []int64
	if e.ApproverID != nil {
		recipients = []int64{*e.ApproverID}
	} else {
		ids, err := s.directory.ApproverIDs(ctx)
		if err != nil {
			return fmt.Errorf("resolve approver recipients: %w", err)
		}
		recipients = ids
	}

	title := "Approval requested"
	message := fmt.Sprintf("%s requested approval for %s #%d.", e.RequesterName, subjectLabel(e.SubjectType), e.SubjectID)
	link := fmt.Sprintf("/approvals/%d", e.ApprovalID)

	for _, recipientID := range recipients {
		if recipientID == e.RequesterID {
			continue
		}
		n := &Notification{
			RecipientID: recipientID,
			Title:       title,
			Message:     message,
			Link:        link,
		}
		if err := s.repo.Create(n); err != nil {
			s.logger.Error("failed to store notification",
				"recipient_id", recipientID,
				"approval_id", e.ApprovalID,
				"error", err)
		}
	}
	return nil
}

// handleApprovalResolved tells the requester how it went.
func (s *Service) handleApprovalResolved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ApprovalResolvedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	n := &Notification{
		RecipientID: e.RequesterID,
		Title:       fmt.Sprintf("Request %s", strings.ToLower(e.Status)),
		Message:     fmt.Sprintf("Your %s #%d was %s.", subjectLabel(e.SubjectType), e.SubjectID, strings.ToLower(e.Status)),
		Link:        fmt.Sprintf("/approvals/%d", e.ApprovalID),
	}
	if err := s.repo.Create(n); err != nil {
		return fmt.Errorf("store resolution notification: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByRecipient(userID, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	ok, err := s.repo.MarkRead(id, userID)
	if err != nil {
		return internal.NewInternalError("failed to mark notification read", err)
	}
	if !ok {
		return internal.ErrNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	count, err := s.repo.MarkAllRead(userID)
	if err != nil {
		return 0, internal.NewInternalError("failed to mark notifications read", err)
	}
	return count, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(userID)
}

func subjectLabel(subjectType string) string {
	if subjectType == "" {
		return "request"
	}
	return strings.ReplaceAll(subjectType, "_", " ")
}
