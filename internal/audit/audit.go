package audit

import (
	"context"
	"time"
)

// Entry is one audit-trail record. UserID is nil for system actions; the
// email is denormalized so the trail survives user deletion.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	UserEmail string    `json:"user_email,omitempty"`
	Action    string    `json:"action"`
	ModelName string    `json:"model_name"`
	ObjectID  string    `json:"object_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter narrows the audit query. Zero values mean no constraint.
type Filter struct {
	UserID    int64
	ModelName string
	Action    string
	Limit     int
	Offset    int
}

// Repository is the storage port for the trail.
type Repository interface {
	Create(e *Entry) error
	List(f Filter) ([]*Entry, error)
}

// ServiceAPI is what the HTTP handler sees.
type ServiceAPI interface {
	Record(ctx context.Context, action, modelName string, objectID int64, details string)
	List(ctx context.Context, f Filter) ([]*Entry, error)
}
