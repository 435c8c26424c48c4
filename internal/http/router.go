package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/auth"
	"github.com/mrlokans/biblion/internal/database/tags"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before the session so the session context survives
	// gorilla/csrf replacing the request.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	authMiddleware := auth.NewMiddleware(cfg.AuthService, cfg.SessionManager)
	router.Use(authMiddleware.Authenticate())

	healthController := NewHealthController(cfg.Database, cfg.TaskClient, cfg.Version)
	router.GET("/health", healthController.Status)

	throttle := func(c *gin.Context) { c.Next() }
	if cfg.LoginLimiter != nil {
		throttle = cfg.LoginLimiter.Middleware()
	}

	// Public auth endpoints
	authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.LoginLimiter, cfg.Audit)
	router.GET("/api/setup/status", authController.SetupStatus)
	router.POST("/api/setup", throttle, authController.Setup)
	router.GET("/api/auth/csrf", auth.CSRFTokenHandler)
	router.POST("/api/auth/login", throttle, authController.Login)
	router.POST("/api/auth/logout", authController.Logout)

	api := router.Group("/api", authMiddleware.RequireAuth())
	admin := api.Group("", authMiddleware.RequireAdmin())

	api.GET("/auth/me", authController.Me)
	api.POST("/auth/password", authController.ChangePassword)
	api.POST("/auth/token", authController.GenerateToken)
	api.DELETE("/auth/token", authController.RevokeToken)

	booksController := NewBooksController(cfg.Books, cfg.Reading, cfg.Audit, cfg.OnBooksDeleted)
	readingController := NewReadingController(cfg.Reading)
	loansController := NewLoansController(cfg.Loans, cfg.Audit)

	api.GET("/books", booksController.List)
	api.POST("/books", booksController.Create)
	api.GET("/books/mine", booksController.Mine)
	api.GET("/books/languages", booksController.Languages)
	api.GET("/books/suggestion", booksController.Suggestion)
	api.GET("/books/isbn/:isbn", booksController.CheckISBN)
	api.POST("/books/by-ids", booksController.ByIDs)
	api.POST("/books/bulk/delete", booksController.BulkDelete)
	api.POST("/books/bulk/category", booksController.BulkCategory)
	api.POST("/books/bulk/location", booksController.BulkLocation)
	api.POST("/books/bulk/status", booksController.BulkStatus)
	api.GET("/books/:id", booksController.Get)
	api.PUT("/books/:id", booksController.Update)
	api.DELETE("/books/:id", booksController.Delete)
	api.GET("/books/:id/status", readingController.GetStatus)
	api.PUT("/books/:id/status", readingController.SetStatus)
	api.GET("/books/:id/loans", loansController.History)
	api.POST("/books/:id/loans", loansController.Lend)

	api.GET("/loans/mine", loansController.Mine)
	api.POST("/loans/:id/return", loansController.Return)
	admin.GET("/loans", loansController.Active)

	categoriesController := NewCategoriesController(cfg.Categories, cfg.Audit)
	api.GET("/categories", categoriesController.Tree)
	api.POST("/categories", categoriesController.Create)
	api.PUT("/categories/:id", categoriesController.Update)
	api.PUT("/categories/:id/parent", categoriesController.Move)
	api.DELETE("/categories/:id", categoriesController.Delete)

	locationsController := NewLocationsController(cfg.Locations, cfg.Audit)
	api.GET("/locations", locationsController.Tree)
	api.POST("/locations", locationsController.Create)
	api.PUT("/locations/:id", locationsController.Update)
	api.PUT("/locations/:id/parent", locationsController.Move)
	api.DELETE("/locations/:id", locationsController.Delete)

	tagsController := NewTagsController(tags.NewRepository(cfg.Database.DB))
	api.GET("/tags", tagsController.List)

	authorsController := NewAuthorsController(cfg.Authors)
	api.GET("/authors", authorsController.List)
	api.GET("/authors/:id", authorsController.Get)
	api.PUT("/authors/:id", authorsController.Update)
	api.POST("/authors/:id/biography", authorsController.RequestBiography)
	admin.POST("/authors/biographies/refresh", authorsController.RefreshBiographies)

	lookupController := NewLookupController(cfg.Lookup)
	api.GET("/lookup/isbn/:isbn", lookupController.ISBN)

	statsController := NewStatsController(cfg.Stats, cfg.Rewards)
	api.GET("/stats", statsController.Library)
	api.GET("/profile", statsController.Profile)
	api.GET("/badges", statsController.Badges)

	settingsController := NewSettingsController(cfg.AppContext, cfg.SettingsStore, cfg.BackupScheduler, cfg.Audit)
	api.GET("/settings", settingsController.List)
	admin.PUT("/settings", settingsController.Update)
	api.GET("/backup", settingsController.Backup)
	admin.PUT("/backup", settingsController.UpdateBackup)
	admin.POST("/backup/run", settingsController.RunBackup)

	dataController := NewDataController(cfg.Database.DB, cfg.Audit)
	api.GET("/export/json", dataController.ExportJSON)
	api.GET("/export/csv", dataController.ExportCSV)
	api.POST("/import/json", dataController.ImportJSON)
	api.POST("/import/csv", dataController.ImportCSV)

	usersController := NewUsersController(cfg.AuthService, cfg.Audit)
	admin.GET("/admin/users", usersController.List)
	admin.POST("/admin/users", usersController.Create)
	admin.PUT("/admin/users/:id/role", usersController.UpdateRole)
	admin.PUT("/admin/users/:id/password", usersController.ResetPassword)
	admin.DELETE("/admin/users/:id", usersController.Delete)

	auditController := NewAuditController(cfg.Audit)
	admin.GET("/admin/audit", auditController.Events)

	tasksController := NewTasksController(cfg.TaskClient)
	admin.GET("/tasks/:id", tasksController.Status)

	return router
}
