package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/opsdesk/ops-management/internal"
)

// Service writes the audit trail. The acting user comes off the request
// context, never from a global slot, so concurrent requests cannot cross
// attribute their writes.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record persists one trail entry. Failures are logged and swallowed: the
// audit trail must never fail the request it describes.
func (s *Service) Record(ctx context.Context, action, modelName string, objectID int64, details string) {
	entry := &Entry{
		Action:    action,
		ModelName: modelName,
		ObjectID:  strconv.FormatInt(objectID, 10),
		Details:   details,
		Timestamp: time.Now(),
	}

	if actor, ok := internal.ActorFromContext(ctx); ok {
		userID := actor.UserID
		entry.UserID = &userID
		entry.UserEmail = actor.Email
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to write audit entry",
			"action", action,
			"model", modelName,
			"object_id", objectID,
			"error", err)
	}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Entry, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(f)
}
