package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/backup"
	"github.com/mrlokans/biblion/internal/covers"
	"github.com/mrlokans/biblion/internal/database/tags"
	"github.com/mrlokans/biblion/internal/http"
	"github.com/mrlokans/biblion/internal/importers"
	"github.com/mrlokans/biblion/internal/metadata"
	"github.com/mrlokans/biblion/internal/services"
	"github.com/mrlokans/biblion/internal/settingsstore"
	"github.com/mrlokans/biblion/internal/tasks"
)

// =============================================================================
// Service Hooks
// =============================================================================

// ReadHook implementations
var _ services.ReadHook = (*tasks.Dispatcher)(nil)
var _ services.ReadHook = (*services.BackgroundRewards)(nil)

// AuthorHook implementations
var _ services.AuthorHook = (*tasks.Dispatcher)(nil)
var _ services.AuthorHook = (*services.BackgroundBiographies)(nil)

// DeletionHook implementations
var _ http.DeletionHook = (*tasks.Dispatcher)(nil)

// =============================================================================
// External Services
// =============================================================================

// ISBNSource implementations
var _ metadata.ISBNSource = (*metadata.GoogleBooksClient)(nil)
var _ metadata.ISBNSource = (*metadata.OpenLibraryClient)(nil)

// BiographySource implementations
var _ services.BiographySource = (*metadata.WikipediaClient)(nil)

// CoverInliner implementations
var _ services.CoverInliner = (*covers.Inliner)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.RewardGranter = (*services.Rewards)(nil)
var _ tasks.BiographyFetcher = (*services.AuthorService)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.TagPruner = (*tags.Repository)(nil)

// =============================================================================
// Backups and Import
// =============================================================================

// PathSource implementations
var _ backup.PathSource = (*settingsstore.SettingsStore)(nil)

// Converter implementations
var _ importers.Converter = (*importers.JSONConverter)(nil)
var _ importers.Converter = (*importers.CSVConverter)(nil)
