package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/auth"
	"github.com/mrlokans/biblion/internal/backup"
	"github.com/mrlokans/biblion/internal/config"
	"github.com/mrlokans/biblion/internal/covers"
	"github.com/mrlokans/biblion/internal/database"
	auditrepo "github.com/mrlokans/biblion/internal/database/audit"
	"github.com/mrlokans/biblion/internal/database/tags"
	http_controllers "github.com/mrlokans/biblion/internal/http"
	"github.com/mrlokans/biblion/internal/metadata"
	"github.com/mrlokans/biblion/internal/scheduler"
	"github.com/mrlokans/biblion/internal/services"
	"github.com/mrlokans/biblion/internal/settingsstore"
	"github.com/mrlokans/biblion/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then shut down within the configured timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before background workers go away
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// CSRFSecret decodes the configured session secret, accepting hex or raw
// bytes. An empty secret yields a freshly generated one.
func CSRFSecret(sessionSecret string) ([]byte, error) {
	if sessionSecret != "" {
		if secret, err := hex.DecodeString(sessionSecret); err == nil {
			return secret, nil
		}
		return []byte(sessionSecret), nil
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Biblion v%s", version)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Authentication
	authService := auth.NewService(db, cfg.Auth)
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	limiter := auth.NewLoginLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)
	csrfSecret, err := CSRFSecret(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	settings := settingsstore.New(db.DB)
	backupScheduler := scheduler.NewBackupScheduler(backup.NewService(db.Path, settings), settings, auditService)

	// External metadata providers
	providerOpts := metadata.Options{Timeout: cfg.Metadata.Timeout, Interval: cfg.Metadata.Rate}
	lookup := metadata.NewLookup(
		metadata.NewGoogleBooksClient(providerOpts),
		metadata.NewOpenLibraryClient(providerOpts),
	)
	wikipedia := metadata.NewWikipediaClient(providerOpts)
	coverInliner := covers.NewInliner(cfg.Metadata.Timeout)

	rewards := services.NewRewards(db.DB)

	var (
		readHook     services.ReadHook
		authorHook   services.AuthorHook
		deletionHook http_controllers.DeletionHook
		taskClient   *tasks.Client
		background   *services.BackgroundRewards
		biographies  *services.BackgroundBiographies
	)

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(db.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()
		dispatcher := tasks.NewDispatcher(taskClient)
		readHook, authorHook, deletionHook = dispatcher, dispatcher, dispatcher
	} else {
		log.Printf("Task queue disabled, background work runs in goroutines")
		background = services.NewBackgroundRewards(rewards)
		biographies = &services.BackgroundBiographies{}
		readHook, authorHook = background, biographies
	}

	authors := services.NewAuthorService(db.DB, wikipedia, authorHook)
	if biographies != nil {
		biographies.Bind(authors)
	}

	if taskClient != nil {
		taskClient.Register(
			tasks.NewAwardReadQueue(rewards),
			tasks.NewFetchAuthorBioQueue(authors),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewCleanupOrphanTagsQueue(tags.NewRepository(db.DB)),
		)
		go taskClient.Start(appCtx)

		if _, err := tasks.NewDispatcher(taskClient).CleanupAuditEvents(cfg.Audit.RetentionDays); err != nil {
			log.Printf("Failed to enqueue audit cleanup: %v", err)
		}
	} else if _, err := auditService.DeleteOldEvents(time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour); err != nil {
		log.Printf("Failed to delete old audit events: %v", err)
	}

	if cfg.Backup.OnStartup {
		backupScheduler.StartupBackup(appCtx)
	}
	if err := backupScheduler.Start(appCtx); err != nil {
		log.Printf("WARNING: Backup scheduler not started: %v", err)
	}

	if hasUsers, _ := authService.HasUsers(); !hasUsers {
		log.Printf("No users found. POST /api/setup to create an administrator account.")
	}

	routerCfg := http_controllers.RouterConfig{
		AppContext:      appCtx,
		Database:        db,
		Audit:           auditService,
		Version:         version,
		AuthService:     authService,
		SessionManager:  sessionManager,
		LoginLimiter:    limiter,
		CSRFSecret:      csrfSecret,
		SecureCookies:   cfg.Auth.SecureCookies,
		Books:           services.NewBookService(db.DB, coverInliner, readHook, authorHook),
		Reading:         services.NewReadingTracker(db.DB, readHook),
		Loans:           services.NewLoanManager(db.DB, cfg.Loans.Period),
		Categories:      services.NewCategoryService(db.DB),
		Locations:       services.NewLocationService(db.DB),
		Authors:         authors,
		Rewards:         rewards,
		Stats:           services.NewStatsService(db.DB),
		Lookup:          lookup,
		SettingsStore:   settings,
		BackupScheduler: backupScheduler,
		TaskClient:      taskClient,
	}
	if deletionHook != nil {
		routerCfg.OnBooksDeleted = deletionHook
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		backupScheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		appCancel()
		if background != nil {
			background.Wait()
		}
		if biographies != nil {
			biographies.Wait()
		}
		limiter.Stop()
		auditService.Wait()
	}

	Serve(router, cfg, onShutdown)
}
