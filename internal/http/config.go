package http

import (
	"context"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/auth"
	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/metadata"
	"github.com/mrlokans/biblion/internal/scheduler"
	"github.com/mrlokans/biblion/internal/services"
	"github.com/mrlokans/biblion/internal/settingsstore"
	"github.com/mrlokans/biblion/internal/tasks"
)

// hstsMaxAge is one year, sent only when cookies are marked secure.
const hstsMaxAge = 365 * 24 * 60 * 60

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	AppContext context.Context
	Database   *database.Database
	Audit      *audit.Service
	Version    string

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	LoginLimiter   *auth.LoginLimiter
	CSRFSecret     []byte
	SecureCookies  bool

	// Library services
	Books      *services.BookService
	Reading    *services.ReadingTracker
	Loans      *services.LoanManager
	Categories *services.CategoryService
	Locations  *services.LocationService
	Authors    *services.AuthorService
	Rewards    *services.Rewards
	Stats      *services.StatsService

	// OnBooksDeleted is told after book deletions, optional
	OnBooksDeleted DeletionHook

	// ISBN lookup, optional
	Lookup *metadata.Lookup

	// Settings and backups
	SettingsStore   *settingsstore.SettingsStore
	BackupScheduler *scheduler.BackupScheduler

	// Task queue client (optional)
	TaskClient *tasks.Client
}
