package internal

import (
	"context"
	"time"
)

type ctxKey string

const actorKey ctxKey = "actor"

// Actor identifies the user driving the current request. It travels on the
// request context so persistence-side audit hooks can attribute writes without
// any process-wide mutable state.
type Actor struct {
	UserID int64
	Email  string
	Role   string
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting user, if one was set for this request.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
