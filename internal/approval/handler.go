package approval

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrInvalidToken)
		return
	}

	var dto CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrInvalidToken)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	requests, err := h.Service.List(r.Context(), user, limit, offset)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []*Request{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"approvals": requests})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrInvalidToken)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid approval id")
		return
	}

	req, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrInvalidToken)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid approval id")
		return
	}

	var dto ResolveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Resolve(r.Context(), user, id, dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}
