package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/opsdesk/ops-management/internal/approval"
	"github.com/opsdesk/ops-management/internal/audit"
	"github.com/opsdesk/ops-management/internal/auth"
	"github.com/opsdesk/ops-management/internal/leave"
	"github.com/opsdesk/ops-management/internal/notification"
	"github.com/opsdesk/ops-management/internal/transport/middleware"
	"github.com/opsdesk/ops-management/internal/transport/swagger"
	"github.com/opsdesk/ops-management/internal/twofactor"
	"github.com/opsdesk/ops-management/internal/user"
)

// Handlers bundles every module handler the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	TwoFactor    *twofactor.Handler
	User         *user.Handler
	Approval     *approval.Handler
	Leave        *leave.Handler
	Notification *notification.Handler
	Audit        *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, rdb redis.UniversalClient, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, rdb)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/send-otp", h.Auth.SendOTP)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", h.User.Me)
				ur.Post("/", h.User.Register)
				ur.Post("/change-password", h.User.ChangePassword)
			})

			pr.Route("/2fa", func(tr chi.Router) {
				tr.Get("/", h.TwoFactor.GetStatus)
				tr.Post("/setup", h.TwoFactor.Setup)
				tr.Post("/confirm", h.TwoFactor.Confirm)
				tr.Post("/disable", h.TwoFactor.Disable)
				tr.Patch("/config", h.TwoFactor.UpdateMode)
			})

			pr.Route("/approvals", func(ar chi.Router) {
				ar.Post("/", h.Approval.Create)
				ar.Get("/", h.Approval.List)
				ar.Get("/{id}", h.Approval.Get)
				ar.Patch("/{id}/action", h.Approval.Resolve)
			})

			pr.Route("/leaves", func(lr chi.Router) {
				lr.Post("/", h.Leave.Apply)
				lr.Get("/", h.Leave.List)
				lr.Get("/{id}", h.Leave.Get)
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Get("/", h.Notification.List)
				nr.Get("/unread-count", h.Notification.UnreadCount)
				nr.Patch("/{id}/read", h.Notification.MarkRead)
				nr.Post("/read-all", h.Notification.MarkAllRead)
			})

			pr.Get("/audit-logs", h.Audit.List)
		})
	})
}
