package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/biblion/internal/audit"
	"github.com/mrlokans/biblion/internal/backup"
	"github.com/mrlokans/biblion/internal/database"
	auditRepo "github.com/mrlokans/biblion/internal/database/audit"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/settingsstore"
)

type fixture struct {
	db        *database.Database
	store     *settingsstore.SettingsStore
	audit     *audit.Service
	scheduler *BackupScheduler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "biblion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := settingsstore.New(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	sched := NewBackupScheduler(backup.NewService(db.Path, store), store, auditService)
	return &fixture{db: db, store: store, audit: auditService, scheduler: sched}
}

func backupFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_RecordsSuccess(t *testing.T) {
	f := setup(t)
	dir := t.TempDir()
	require.NoError(t, f.store.SetBackupPath(dir))

	result, err := f.scheduler.Run(context.Background(), backup.KindManual, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(result.Path), "backup-"))

	status := f.store.GetBackupStatus()
	assert.Equal(t, "success", status.Status)
	assert.Equal(t, result.Path, status.File)

	f.audit.Wait()
	events, total, err := f.audit.GetEvents(auditRepo.Query{EventType: entities.AuditEventBackup})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "backup", events[0].Action)
	assert.Equal(t, uint(1), events[0].UserID)
}

func TestRun_RecordsFailure(t *testing.T) {
	f := setup(t)

	_, err := f.scheduler.Run(context.Background(), backup.KindScheduled, 0)
	require.ErrorIs(t, err, backup.ErrPathNotConfigured)

	status := f.store.GetBackupStatus()
	assert.Equal(t, "failed", status.Status)
	assert.Equal(t, backup.ErrPathNotConfigured.Error(), status.Message)

	f.audit.Wait()
	events, _, err := f.audit.GetEvents(auditRepo.Query{EventType: entities.AuditEventBackup})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entities.AuditStatusFailed, events[0].Status)
}

func TestStartupBackup(t *testing.T) {
	t.Run("skipped without a path", func(t *testing.T) {
		f := setup(t)
		f.scheduler.StartupBackup(context.Background())
		assert.Empty(t, f.store.GetBackupStatus().Status)
	})

	t.Run("writes auto-startup file", func(t *testing.T) {
		f := setup(t)
		dir := t.TempDir()
		require.NoError(t, f.store.SetBackupPath(dir))

		f.scheduler.StartupBackup(context.Background())

		names := backupFiles(t, dir)
		require.Len(t, names, 1)
		assert.True(t, strings.HasPrefix(names[0], "auto-startup-backup-"))
		f.audit.Wait()
	})
}

func TestStartStop(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.scheduler.Start(ctx))
	assert.False(t, f.scheduler.IsRunning(), "disabled by default")
	assert.Nil(t, f.scheduler.GetNextRunTime())

	require.NoError(t, f.store.SetBackupEnabled(true))
	require.NoError(t, f.scheduler.Reschedule(ctx))
	assert.False(t, f.scheduler.IsRunning(), "no path configured")

	require.NoError(t, f.store.SetBackupPath(t.TempDir()))
	require.NoError(t, f.store.SetBackupSchedule("0 */6 * * *"))
	require.NoError(t, f.scheduler.Reschedule(ctx))
	assert.True(t, f.scheduler.IsRunning())
	assert.NotNil(t, f.scheduler.GetNextRunTime())

	f.scheduler.Stop()
	assert.False(t, f.scheduler.IsRunning())
	f.scheduler.Stop()
}
