package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/backup"
	"github.com/mrlokans/biblion/internal/scheduler"
	"github.com/mrlokans/biblion/internal/settingsstore"
)

// SettingsController exposes generic settings and the backup configuration.
type SettingsController struct {
	store     *settingsstore.SettingsStore
	scheduler *scheduler.BackupScheduler
	audit     *audit.Service

	// appCtx outlives requests; the scheduler stops when it is cancelled.
	appCtx context.Context
}

func NewSettingsController(appCtx context.Context, store *settingsstore.SettingsStore, backupScheduler *scheduler.BackupScheduler, auditService *audit.Service) *SettingsController {
	if appCtx == nil {
		appCtx = context.Background()
	}
	return &SettingsController{
		store:     store,
		scheduler: backupScheduler,
		audit:     auditService,
		appCtx:    appCtx,
	}
}

// List handles GET /api/settings
func (sc *SettingsController) List(c *gin.Context) {
	values, err := sc.store.All()
	if err != nil {
		respondInternalError(c, err, "list settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": values})
}

// Update handles PUT /api/settings with a flat key/value object.
func (sc *SettingsController) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		respondBadRequest(c, "Invalid request body: expected an object of string values")
		return
	}
	if len(values) == 0 {
		respondBadRequest(c, "No settings provided")
		return
	}
	if err := sc.store.SetValues(values); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sc.logSettings(actor.UserID, "settings_update", "Updated "+strings.Join(keys, ", "))
	sc.reschedule()

	sc.List(c)
}

// BackupInfo is the response of GET /api/backup.
type BackupInfo struct {
	Config          settingsstore.BackupConfigInfo `json:"config"`
	Status          settingsstore.BackupStatus     `json:"status"`
	Description     string                         `json:"description"`
	SchedulerActive bool                           `json:"scheduler_active"`
	NextRunAt       *time.Time                     `json:"next_run_at,omitempty"`
}

// Backup handles GET /api/backup
func (sc *SettingsController) Backup(c *gin.Context) {
	info := sc.store.GetBackupConfigInfo()
	resp := BackupInfo{
		Config:      info,
		Status:      sc.store.GetBackupStatus(),
		Description: settingsstore.GetCronDescription(info.Schedule),
	}
	if sc.scheduler != nil {
		resp.SchedulerActive = sc.scheduler.IsRunning()
		resp.NextRunAt = sc.scheduler.GetNextRunTime()
	}
	c.JSON(http.StatusOK, resp)
}

// BackupConfigRequest updates any subset of the backup configuration.
type BackupConfigRequest struct {
	Path     *string `json:"path"`
	Schedule *string `json:"schedule"`
	Enabled  *bool   `json:"enabled"`
}

// UpdateBackup handles PUT /api/backup
func (sc *SettingsController) UpdateBackup(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req BackupConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	var changes []string
	if req.Path != nil {
		if err := sc.store.SetBackupPath(strings.TrimSpace(*req.Path)); err != nil {
			respondInternalError(c, err, "set backup path")
			return
		}
		changes = append(changes, "path")
	}
	if req.Schedule != nil {
		schedule := strings.TrimSpace(*req.Schedule)
		if err := settingsstore.ValidateCronSchedule(schedule); err != nil {
			respondBadRequest(c, fmt.Sprintf("Invalid cron schedule %q: %v", schedule, err))
			return
		}
		if err := sc.store.SetBackupSchedule(schedule); err != nil {
			respondInternalError(c, err, "set backup schedule")
			return
		}
		changes = append(changes, "schedule")
	}
	if req.Enabled != nil {
		if err := sc.store.SetBackupEnabled(*req.Enabled); err != nil {
			respondInternalError(c, err, "set backup enabled")
			return
		}
		changes = append(changes, "enabled")
	}
	if len(changes) == 0 {
		respondBadRequest(c, "No backup settings provided")
		return
	}

	sc.logSettings(actor.UserID, "backup_config", "Updated backup "+strings.Join(changes, ", "))
	sc.reschedule()

	sc.Backup(c)
}

// RunBackup handles POST /api/backup/run
func (sc *SettingsController) RunBackup(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if sc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "Backups are not available")
		return
	}

	result, err := sc.scheduler.Run(c.Request.Context(), backup.KindManual, actor.UserID)
	switch {
	case errors.Is(err, backup.ErrPathNotConfigured):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "run backup")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Backup created successfully",
		"backup":  result,
	})
}

func (sc *SettingsController) reschedule() {
	if sc.scheduler == nil {
		return
	}
	if err := sc.scheduler.Reschedule(sc.appCtx); err != nil {
		// The new settings are stored even if the scheduler cannot use them.
		log.Printf("[SCHEDULER] Reschedule failed: %v", err)
	}
}

func (sc *SettingsController) logSettings(userID uint, action, description string) {
	if sc.audit != nil {
		sc.audit.LogSettings(userID, action, description)
	}
}
