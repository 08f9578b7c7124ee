package notification

import (
	"context"
	"time"
)

// Notification is an in-app message for one recipient.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository is the storage port. MarkRead is scoped to the recipient so one
// user cannot acknowledge another's notifications.
type Repository interface {
	Create(n *Notification) error
	ListByRecipient(userID int64, limit, offset int) ([]*Notification, error)
	MarkRead(id, userID int64) (bool, error)
	MarkAllRead(userID int64) (int64, error)
	CountUnread(userID int64) (int64, error)
}

// ApproverDirectory answers who should hear about an unassigned approval
// request: every user whose role can resolve one.
type ApproverDirectory interface {
	ApproverIDs(ctx context.Context) ([]int64, error)
}

// ServiceAPI is what the HTTP handler sees.
type ServiceAPI interface {
	List(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}
