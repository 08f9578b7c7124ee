package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/auth"
	"github.com/opsdesk/ops-management/internal/transport"
	"github.com/opsdesk/ops-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// List is admin-only. Supports filtering by user, model and action.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrInvalidToken)
		return
	}
	if !auth.CanViewAuditLogs(user.Role) {
		h.WriteError(w, internal.ErrUnauthorizedAccess)
		return
	}

	q := r.URL.Query()
	userID, _ := strconv.ParseInt(q.Get("user_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, err := h.Service.List(r.Context(), Filter{
		UserID:    userID,
		ModelName: q.Get("model"),
		Action:    q.Get("action"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*Entry{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"audit_logs": entries})
}
