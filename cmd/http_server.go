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

	"github.com/frahmantamala/asset-inventory/api"
	"github.com/frahmantamala/asset-inventory/internal"
	"github.com/frahmantamala/asset-inventory/internal/activity"
	activityPostgres "github.com/frahmantamala/asset-inventory/internal/activity/postgres"
	"github.com/frahmantamala/asset-inventory/internal/asset"
	assetPostgres "github.com/frahmantamala/asset-inventory/internal/asset/postgres"
	"github.com/frahmantamala/asset-inventory/internal/auth"
	authPostgres "github.com/frahmantamala/asset-inventory/internal/auth/postgres"
	"github.com/frahmantamala/asset-inventory/internal/core/database"
	"github.com/frahmantamala/asset-inventory/internal/core/events"
	"github.com/frahmantamala/asset-inventory/internal/credential"
	credentialPostgres "github.com/frahmantamala/asset-inventory/internal/credential/postgres"
	"github.com/frahmantamala/asset-inventory/internal/lifecycle"
	lifecyclePostgres "github.com/frahmantamala/asset-inventory/internal/lifecycle/postgres"
	"github.com/frahmantamala/asset-inventory/internal/location"
	locationPostgres "github.com/frahmantamala/asset-inventory/internal/location/postgres"
	"github.com/frahmantamala/asset-inventory/internal/permission"
	permissionPostgres "github.com/frahmantamala/asset-inventory/internal/permission/postgres"
	"github.com/frahmantamala/asset-inventory/internal/transport"
	"github.com/frahmantamala/asset-inventory/internal/transport/rest"
	"github.com/frahmantamala/asset-inventory/internal/transport/swagger"
	"github.com/frahmantamala/asset-inventory/internal/user"
	userPostgres "github.com/frahmantamala/asset-inventory/internal/user/postgres"
	"github.com/frahmantamala/asset-inventory/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
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
	Config     *internal.Config
	DB         *sqlx.DB
	Gorm       *gorm.DB
	Router     *chi.Mux
	EventBus   *events.EventBus
	Dispatcher *activity.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Dispatcher.Shutdown()
			os.Exit(1)
		}
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 5*time.Second)
	if err := deps.EventBus.Drain(drainCtx); err != nil {
		deps.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	cancelDrain()

	deps.Dispatcher.Shutdown()
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc, err := swagger.Load(ctx, api.OpenAPI)
	if err != nil {
		return err
	}

	key, err := deps.Config.Security.GetCredentialKey()
	if err != nil {
		return err
	}

	lg := deps.Logger
	base := transport.NewBaseHandler(lg)
	bus := deps.EventBus

	permRepo := permissionPostgres.NewPermissionRepository(deps.Gorm)
	resolver := permission.NewResolver(permRepo, lg)
	permissionService := permission.NewService(permRepo, bus, lg)

	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		auth.NewJWTTokenGenerator(
			deps.Config.Security.JWTAccessSecret,
			deps.Config.Security.JWTRefreshSecret,
			deps.Config.Security.AccessTokenDuration,
			deps.Config.Security.RefreshTokenDuration,
		),
		deps.Config.Security.BCryptCost,
	)

	lifecycleService := lifecycle.NewService(lifecyclePostgres.NewStore(deps.Gorm, lg), bus, lg)

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		User:       user.NewHandler(base, user.NewService(userPostgres.NewUserRepository(deps.Gorm), resolver, authService, bus, lg)),
		Permission: permission.NewHandler(base, permissionService, resolver),
		Location:   location.NewHandler(base, location.NewService(locationPostgres.NewLocationRepository(deps.Gorm), bus, lg)),
		Asset:      asset.NewHandler(base, asset.NewService(assetPostgres.NewAssetRepository(deps.Gorm), bus, lg)),
		Credential: credential.NewHandler(base, credential.NewService(
			credentialPostgres.NewCredentialRepository(deps.Gorm), credential.NewSealer(key), bus, lg)),
		AssetLifecycle:      lifecycle.NewHandler(base, lifecycleService, lifecycle.KindAsset),
		CredentialLifecycle: lifecycle.NewHandler(base, lifecycleService, lifecycle.KindCredential),
		Activity:            activity.NewHandler(base, activity.NewService(activityPostgres.NewActivityRepository(deps.DB), lg)),
		ActivityQueue:       deps.Dispatcher,
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, handlers, permission.NewAuthorization(resolver, lg), doc, deps.Config.Server, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config := mustLoadConfig()
	lg := logger.LoggerWrapper()

	sqlxDB, gormDB, err := database.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	dispatcher := activity.NewDispatcher(activityPostgres.NewActivityRepository(sqlxDB), activity.DispatcherConfig{
		Workers:   config.Activity.Workers,
		QueueSize: config.Activity.QueueSize,
	}, lg)
	activity.NewEventHandler(dispatcher, lg).RegisterEventHandlers(bus)

	return &Dependencies{
		Config:     config,
		DB:         sqlxDB,
		Gorm:       gormDB,
		Router:     chi.NewRouter(),
		EventBus:   bus,
		Dispatcher: dispatcher,
		Logger:     lg,
	}, nil
}
