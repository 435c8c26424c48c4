// Package scheduler runs periodic database backups on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/backup"
	"github.com/mrlokans/biblion/internal/settingsstore"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// BackupScheduler writes scheduled backups and records the outcome of every
// backup run in settings and the audit log.
type BackupScheduler struct {
	backups       *backup.Service
	settingsStore *settingsstore.SettingsStore
	auditService  *audit.Service

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	runMu     sync.Mutex
	isRunning bool
}

// NewBackupScheduler creates a new scheduler instance. auditService may be nil.
func NewBackupScheduler(backups *backup.Service, settingsStore *settingsstore.SettingsStore, auditService *audit.Service) *BackupScheduler {
	return &BackupScheduler{
		backups:       backups,
		settingsStore: settingsStore,
		auditService:  auditService,
	}
}

// Start begins the scheduler if scheduled backups are enabled.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settingsStore.GetBackupConfig()

	if !config.Enabled {
		log.Printf("[SCHEDULER] Backup scheduler: disabled")
		return nil
	}

	if config.Path == "" {
		log.Printf("[SCHEDULER] Backup scheduler: backup path not configured, skipping")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	s.cron = cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		_, _ = s.Run(context.Background(), backup.KindScheduled, 0)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule, time.Now())
	log.Printf("[SCHEDULER] Backup scheduler: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler and waits for a running backup.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopped := s.cron.Stop()
	<-stopped.Done()

	s.isRunning = false
	log.Printf("[SCHEDULER] Backup scheduler: stopped")
}

// Reschedule applies changed settings.
func (s *BackupScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// IsRunning returns whether the scheduler is active.
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next scheduled backup will occur.
func (s *BackupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if entry.ID == 0 {
		return nil
	}
	next := entry.Next
	if next.IsZero() {
		// The cron loop has not computed the first activation yet.
		next = entry.Schedule.Next(time.Now())
	}
	return &next
}

// StartupBackup writes an auto-startup backup when a backup path is set.
func (s *BackupScheduler) StartupBackup(ctx context.Context) {
	if s.settingsStore.GetBackupPath() == "" {
		log.Printf("[BACKUP] Startup backup skipped: backup path not configured")
		return
	}
	_, _ = s.Run(ctx, backup.KindStartup, 0)
}

// Run performs one backup of the given kind and records its outcome.
// userID is 0 for unattended runs. Runs never overlap.
func (s *BackupScheduler) Run(ctx context.Context, kind backup.Kind, userID uint) (*backup.Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	action := string(kind)
	startTime := time.Now()

	result, err := s.backups.Create(ctx, kind)
	if err != nil {
		log.Printf("[BACKUP] %s failed: %v", action, err)
		_ = s.settingsStore.SetBackupStatus(statusFailed, err.Error(), "")
		s.logAudit(userID, action, "Backup failed", err)
		return nil, err
	}

	message := fmt.Sprintf("Wrote %s (%d bytes) in %v", result.Path, result.Size, time.Since(startTime).Round(time.Millisecond))
	log.Printf("[BACKUP] %s: %s", action, message)
	_ = s.settingsStore.SetBackupStatus(statusSuccess, message, result.Path)
	s.logAudit(userID, action, message, nil)
	return result, nil
}

func (s *BackupScheduler) logAudit(userID uint, action, description string, err error) {
	if s.auditService == nil {
		return
	}
	s.auditService.LogBackup(userID, action, description, err)
}
