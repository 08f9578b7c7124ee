package approval

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/auth"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// StatusFor maps a resolve action to the terminal status it produces.
func StatusFor(a Action) (Status, error) {
	switch a {
	case ActionApprove:
		return StatusApproved, nil
	case ActionReject:
		return StatusRejected, nil
	}
	return "", internal.ErrInvalidAction.WithMessage("Action must be APPROVE or REJECT.")
}

// SubjectType names a kind of domain object an approval request can point at.
type SubjectType string

// Request is a pending or resolved approval. SubjectType and SubjectID form
// the typed reference into the owning module's storage.
type Request struct {
	ID          int64       `json:"id"`
	RequesterID int64       `json:"requester_id"`
	ApproverID  *int64      `json:"approver_id,omitempty"`
	Status      Status      `json:"status"`
	SubjectType SubjectType `json:"subject_type"`
	SubjectID   int64       `json:"subject_id"`
	Comments    string      `json:"comments,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SubjectBinding is how a module plugs its objects into the workflow engine.
// Exists validates the reference at request creation; ApplyOutcome propagates
// the terminal status back onto the subject.
type SubjectBinding interface {
	Exists(ctx context.Context, subjectID int64) (bool, error)
	ApplyOutcome(ctx context.Context, subjectID int64, status Status, approverID int64) error
}

// Registry maps subject types to their bindings. Modules register at wiring
// time; an unregistered type is rejected at request creation.
type Registry struct {
	mu       sync.RWMutex
	bindings map[SubjectType]SubjectBinding
}

func NewRegistry() *Registry {
	return &Registry{bindings: make(map[SubjectType]SubjectBinding)}
}

func (r *Registry) Register(t SubjectType, b SubjectBinding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[t] = b
}

func (r *Registry) Lookup(t SubjectType) (SubjectBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[t]
	return b, ok
}

func (r *Registry) Types() []SubjectType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]SubjectType, 0, len(r.bindings))
	for t := range r.bindings {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Repository is the storage port of the workflow engine. Resolve performs a
// conditional update that only succeeds while the row is still PENDING and
// reports whether it won.
type Repository interface {
	Create(req *Request) error
	GetByID(id int64) (*Request, error)
	ListAll(limit, offset int) ([]*Request, error)
	ListByRequester(userID int64, limit, offset int) ([]*Request, error)
	ListVisibleTo(userID int64, limit, offset int) ([]*Request, error)
	Resolve(id int64, status Status, approverID int64, comments string) (bool, error)
}

// AuditRecorder is the audit-trail port. Recording failures must not fail the
// request, so there is no error to return.
type AuditRecorder interface {
	Record(ctx context.Context, action, modelName string, objectID int64, details string)
}

// ServiceAPI is what the HTTP handler and sibling modules see.
type ServiceAPI interface {
	Create(ctx context.Context, user *auth.User, dto CreateDTO) (*Request, error)
	Get(ctx context.Context, user *auth.User, id int64) (*Request, error)
	List(ctx context.Context, user *auth.User, limit, offset int) ([]*Request, error)
	Resolve(ctx context.Context, user *auth.User, id int64, dto ResolveDTO) (*Request, error)
}
