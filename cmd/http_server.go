package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opsdesk/ops-management/internal"
	"github.com/opsdesk/ops-management/internal/approval"
	approvalpg "github.com/opsdesk/ops-management/internal/approval/postgres"
	"github.com/opsdesk/ops-management/internal/audit"
	auditpg "github.com/opsdesk/ops-management/internal/audit/postgres"
	"github.com/opsdesk/ops-management/internal/auth"
	authpg "github.com/opsdesk/ops-management/internal/auth/postgres"
	"github.com/opsdesk/ops-management/internal/core/events"
	"github.com/opsdesk/ops-management/internal/leave"
	leavepg "github.com/opsdesk/ops-management/internal/leave/postgres"
	"github.com/opsdesk/ops-management/internal/notification"
	notificationpg "github.com/opsdesk/ops-management/internal/notification/postgres"
	"github.com/opsdesk/ops-management/internal/otp"
	"github.com/opsdesk/ops-management/internal/transport/rest"
	"github.com/opsdesk/ops-management/internal/twofactor"
	twofactorpg "github.com/opsdesk/ops-management/internal/twofactor/postgres"
	"github.com/opsdesk/ops-management/internal/user"
	userpg "github.com/opsdesk/ops-management/internal/user/postgres"
	"github.com/opsdesk/ops-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Redis       redis.UniversalClient
	Router      *chi.Mux
	Logger      *slog.Logger
	RefreshRepo *authpg.RefreshTokenRepository
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	// Expired refresh tokens only block logins until they lapse; the rows
	// themselves need a sweeper.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeRefreshTokens(purgeCtx, deps.RefreshRepo, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		stopPurge()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.Redis.Close(); err != nil {
			deps.Logger.Error("redis close error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		stopPurge()
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	if err := validateOpenAPISpec("./api/openapi.yml", lg); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	eventBus := events.NewEventBus(lg)

	// Repositories
	userRepo := userpg.NewRepository(gormDB)
	authRepo := authpg.NewRepository(gormDB)
	refreshRepo := authpg.NewRefreshTokenRepository(gormDB)
	deviceRepo := twofactorpg.NewRepository(gormDB)
	deviceUserStore := twofactorpg.NewUserStore(gormDB)
	approvalRepo := approvalpg.NewRepository(gormDB)
	leaveRepo := leavepg.NewRepository(gormDB)
	notificationRepo := notificationpg.NewRepository(gormDB)
	auditRepo := auditpg.NewRepository(gormDB)

	// Services
	auditSvc := audit.NewService(auditRepo, lg)

	otpSvc := otp.NewService(rdb, otp.NewSMTPMailer(config.SMTP), otp.NewLogSMSSender(lg), lg)

	twoFactorSvc := twofactor.NewService(deviceRepo, deviceUserStore, config.Security.TOTPIssuer, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authSvc := auth.NewService(authRepo, refreshRepo, tokenGen, otpSvc, twoFactorSvc, lg)

	registry := approval.NewRegistry()
	approvalSvc := approval.NewService(approvalRepo, registry, eventBus, auditSvc, lg)

	leaveSvc := leave.NewService(leaveRepo, approvalSvc, lg)
	registry.Register(leave.SubjectTypeLeave, leave.NewBinding(leaveRepo, lg))

	notificationSvc := notification.NewService(notificationRepo, userRepo, lg)
	notificationSvc.RegisterEventHandlers(eventBus)

	userSvc := user.NewService(userRepo, auditSvc, config.Security.BCryptCost, lg)

	router := chi.NewRouter()
	handlers := rest.Handlers{
		Auth:         auth.NewHandler(authSvc),
		TwoFactor:    twofactor.NewHandler(twoFactorSvc),
		User:         user.NewHandler(userSvc),
		Approval:     approval.NewHandler(approvalSvc),
		Leave:        leave.NewHandler(leaveSvc),
		Notification: notification.NewHandler(notificationSvc),
		Audit:        audit.NewHandler(auditSvc),
	}
	rest.RegisterAllRoutes(router, db.DB, rdb, handlers, lg)

	return &Dependencies{
		Config:      config,
		Logger:      lg,
		DB:          db,
		Redis:       rdb,
		Router:      router,
		RefreshRepo: refreshRepo,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// validateOpenAPISpec makes a broken published contract a boot failure
// instead of a silently wrong /openapi.yml.
func validateOpenAPISpec(path string, lg *slog.Logger) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load openapi spec %s: %w", path, err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("openapi spec %s is invalid: %w", path, err)
	}
	lg.Info("openapi spec validated", "path", path, "title", doc.Info.Title)
	return nil
}

func purgeRefreshTokens(ctx context.Context, repo *authpg.RefreshTokenRepository, lg *slog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := repo.PurgeExpired()
			if err != nil {
				lg.Error("refresh token purge failed", "error", err)
				continue
			}
			if purged > 0 {
				lg.Info("purged expired refresh tokens", "count", purged)
			}
		}
	}
}
