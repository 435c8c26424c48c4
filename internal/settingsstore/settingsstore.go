// Package settingsstore resolves effective backup settings.
//
// Priority: database > environment > default.
package settingsstore

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/mrlokans/biblion/internal/database/settings"
	"github.com/mrlokans/biblion/internal/entities"
)

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"

	DefaultBackupSchedule = "0 3 * * *"

	EnvBackupPath     = "BACKUP_PATH"
	EnvBackupSchedule = "BACKUP_SCHEDULE"
	EnvBackupEnabled  = "BACKUP_ENABLED"
)

// ErrReservedKey is returned when a generic settings write targets a key
// that only the store itself may change.
var ErrReservedKey = errors.New("setting is managed by the backup scheduler")

// reservedKeys are written by SetBackupStatus only.
var reservedKeys = map[string]bool{
	entities.SettingKeyBackupLastAt:      true,
	entities.SettingKeyBackupLastStatus:  true,
	entities.SettingKeyBackupLastMessage: true,
	entities.SettingKeyBackupLastFile:    true,
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type SettingsStore struct {
	repo *settings.Repository
}

func New(db *gorm.DB) *SettingsStore {
	return &SettingsStore{repo: settings.NewRepository(db)}
}

// BackupConfig is the effective backup configuration.
type BackupConfig struct {
	Enabled  bool   `json:"enabled"`
	Path     string `json:"path"`
	Schedule string `json:"schedule"`
}

// BackupConfigInfo includes source information for each field.
type BackupConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Path       string `json:"path"`
	PathSource string `json:"path_source"`

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
}

// BackupStatus represents the last backup run.
type BackupStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Status    string     `json:"status,omitempty"` // "success", "failed", ""
	Message   string     `json:"message,omitempty"`
	File      string     `json:"file,omitempty"`
}

// lookup resolves key from the database, then the environment variable env.
func (s *SettingsStore) lookup(key, env string) (string, string) {
	if value, ok, err := s.repo.GetValue(key); err == nil && ok && value != "" {
		return value, SourceDatabase
	}
	if envVal := os.Getenv(env); envVal != "" {
		return envVal, SourceEnvironment
	}
	return "", SourceDefault
}

// GetBackupPath returns the backup folder, or "" when none is configured.
func (s *SettingsStore) GetBackupPath() string {
	path, _ := s.lookup(entities.SettingKeyBackupPath, EnvBackupPath)
	return path
}

func (s *SettingsStore) GetBackupPathSource() string {
	_, source := s.lookup(entities.SettingKeyBackupPath, EnvBackupPath)
	return source
}

func (s *SettingsStore) SetBackupPath(path string) error {
	return s.repo.SetSetting(entities.SettingKeyBackupPath, strings.TrimSpace(path))
}

// GetBackupSchedule returns the cron schedule (database > env > daily at 03:00).
func (s *SettingsStore) GetBackupSchedule() string {
	schedule, source := s.lookup(entities.SettingKeyBackupSchedule, EnvBackupSchedule)
	if source == SourceDefault {
		return DefaultBackupSchedule
	}
	return schedule
}

func (s *SettingsStore) GetBackupScheduleSource() string {
	_, source := s.lookup(entities.SettingKeyBackupSchedule, EnvBackupSchedule)
	return source
}

// SetBackupSchedule validates and saves the schedule.
func (s *SettingsStore) SetBackupSchedule(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return s.repo.SetSetting(entities.SettingKeyBackupSchedule, schedule)
}

// GetBackupEnabled returns whether scheduled backups run. Disabled by default.
func (s *SettingsStore) GetBackupEnabled() bool {
	value, _ := s.lookup(entities.SettingKeyBackupEnabled, EnvBackupEnabled)
	enabled, err := strconv.ParseBool(value)
	return err == nil && enabled
}

func (s *SettingsStore) GetBackupEnabledSource() string {
	_, source := s.lookup(entities.SettingKeyBackupEnabled, EnvBackupEnabled)
	return source
}

func (s *SettingsStore) SetBackupEnabled(enabled bool) error {
	return s.repo.SetSetting(entities.SettingKeyBackupEnabled, strconv.FormatBool(enabled))
}

// GetBackupConfig returns the effective configuration.
func (s *SettingsStore) GetBackupConfig() BackupConfig {
	return BackupConfig{
		Enabled:  s.GetBackupEnabled(),
		Path:     s.GetBackupPath(),
		Schedule: s.GetBackupSchedule(),
	}
}

// GetBackupConfigInfo returns the configuration with source information.
func (s *SettingsStore) GetBackupConfigInfo() BackupConfigInfo {
	return BackupConfigInfo{
		Enabled:        s.GetBackupEnabled(),
		EnabledSource:  s.GetBackupEnabledSource(),
		Path:           s.GetBackupPath(),
		PathSource:     s.GetBackupPathSource(),
		Schedule:       s.GetBackupSchedule(),
		ScheduleSource: s.GetBackupScheduleSource(),
	}
}

// GetBackupStatus returns the last backup status.
func (s *SettingsStore) GetBackupStatus() BackupStatus {
	status := BackupStatus{}

	if value, ok, err := s.repo.GetValue(entities.SettingKeyBackupLastAt); err == nil && ok && value != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			status.LastRunAt = &ts
		}
	}
	status.Status, _, _ = s.repo.GetValue(entities.SettingKeyBackupLastStatus)
	status.Message, _, _ = s.repo.GetValue(entities.SettingKeyBackupLastMessage)
	status.File, _, _ = s.repo.GetValue(entities.SettingKeyBackupLastFile)

	return status
}

// SetBackupStatus records the outcome of a backup run.
func (s *SettingsStore) SetBackupStatus(status, message, file string) error {
	return s.repo.SetSettings(map[string]string{
		entities.SettingKeyBackupLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyBackupLastStatus:  status,
		entities.SettingKeyBackupLastMessage: message,
		entities.SettingKeyBackupLastFile:    file,
	})
}

// ClearBackupSettings clears all database overrides, reverting to env/default.
func (s *SettingsStore) ClearBackupSettings() error {
	keys := []string{
		entities.SettingKeyBackupEnabled,
		entities.SettingKeyBackupPath,
		entities.SettingKeyBackupSchedule,
	}
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil {
			return fmt.Errorf("failed to clear setting %s: %w", key, err)
		}
	}
	return nil
}

// All returns every stored setting as a key/value map.
func (s *SettingsStore) All() (map[string]string, error) {
	list, err := s.repo.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	values := make(map[string]string, len(list))
	for _, setting := range list {
		values[setting.Key] = setting.Value
	}
	return values, nil
}

// SetValues stores arbitrary key/value pairs in one transaction. Backup
// status keys are rejected and a backup schedule must parse.
func (s *SettingsStore) SetValues(values map[string]string) error {
	for key, value := range values {
		if strings.TrimSpace(key) == "" {
			return errors.New("setting key is required")
		}
		if reservedKeys[key] {
			return fmt.Errorf("%w: %s", ErrReservedKey, key)
		}
		if key == entities.SettingKeyBackupSchedule && value != "" {
			if err := ValidateCronSchedule(value); err != nil {
				return fmt.Errorf("invalid cron schedule %q: %w", value, err)
			}
		}
	}
	return s.repo.SetSettings(values)
}

// ValidateCronSchedule validates a five-field cron schedule string.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule.
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case DefaultBackupSchedule:
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the schedule fires next after from.
func GetNextRunTime(schedule string, from time.Time) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(from)
	return &next, nil
}
