package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/transport"
	"github.com/opsdesk/ops-management/pkg/logger"
)

type contextKey string

// ContextUserKey holds the authenticated *User set by AuthMiddleware.
const ContextUserKey contextKey = "auth_user"

// UserFromContext returns the authenticated user placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok
}

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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// SendOTP always answers 200 with the same message so callers cannot probe
// which emails exist.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var dto SendOTPDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg := h.Service.SendOTP(r.Context(), dto)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Error("token refresh failed", "error", err)
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.Logout(r.Context(), dto.RefreshToken); err != nil {
		h.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware validates the access token, loads the user, and stores both
// the domain user and the audit actor on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, internal.ErrInvalidToken.WithMessage("Missing authorization token"))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, err)
			return
		}

		user, err := h.Service.GetUser(claims.UserID)
		if err != nil {
			h.Logger.Error("auth middleware: failed to load user", "user_id", claims.UserID, "error", err)
			h.WriteError(w, internal.ErrInvalidToken.WithMessage("User not found"))
			return
		}
		if !user.IsActive {
			h.WriteError(w, internal.ErrUserInactive)
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserKey, user)
		ctx = internal.ContextWithActor(ctx, internal.Actor{
			UserID: user.ID,
			Email:  user.Email,
			Role:   string(user.Role),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
