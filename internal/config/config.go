package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Tasks
		Auth
		Audit
		Backup
		Loans
		Metadata
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Account lockout, persisted on the user row
		MaxLoginAttempts int
		LockoutDuration  time.Duration

		// Per client login throttle: one attempt every LoginRate, bursting to LoginBurst
		LoginRate  time.Duration
		LoginBurst int
	}
	Audit struct {
		RetentionDays int
	}
	// Backup path, schedule and enabled flag are resolved by settingsstore
	// (database > BACKUP_PATH/BACKUP_SCHEDULE/BACKUP_ENABLED > default).
	Backup struct {
		OnStartup bool
	}
	Loans struct {
		Period time.Duration
	}
	Metadata struct {
		Timeout time.Duration
		// Minimum spacing between requests to one provider
		Rate time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_retention_days", 90)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth_secure_cookies", true) // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", DefaultMaxLoginAttempts)
	v.SetDefault("auth_lockout_duration", DefaultLockoutDuration)
	v.SetDefault("auth_login_rate", "12s")
	v.SetDefault("auth_login_burst", 5)

	v.SetDefault("backup_on_startup", true)

	v.SetDefault("loan_period", "336h") // 14 days

	v.SetDefault("metadata_timeout", "10s")
	v.SetDefault("metadata_rate", "1s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
			LoginRate:        v.GetDuration("AUTH_LOGIN_RATE"),
			LoginBurst:       v.GetInt("AUTH_LOGIN_BURST"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Backup: Backup{
			OnStartup: v.GetBool("BACKUP_ON_STARTUP"),
		},
		Loans: Loans{
			Period: v.GetDuration("LOAN_PERIOD"),
		},
		Metadata: Metadata{
			Timeout: v.GetDuration("METADATA_TIMEOUT"),
			Rate:    v.GetDuration("METADATA_RATE"),
		},
	}
}
