// Package backup copies the SQLite database file into the configured backup
// folder.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind selects the file name prefix of a backup.
type Kind string

const (
	KindManual    Kind = "backup"
	KindStartup   Kind = "auto-startup-backup"
	KindScheduled Kind = "scheduled-backup"
)

var (
	ErrPathNotConfigured = errors.New("Backup path not configured. Please save a path first.")
	ErrDatabaseNotFound  = errors.New("Main database file not found")
)

// PathSource resolves the backup folder at the time of each run.
type PathSource interface {
	GetBackupPath() string
}

// Result describes a written backup file.
type Result struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service manages backup creation and listing.
type Service struct {
	dbPath string
	paths  PathSource
	now    func() time.Time
}

// NewService creates a Service that copies the database file at dbPath.
func NewService(dbPath string, paths PathSource) *Service {
	return &Service{dbPath: dbPath, paths: paths, now: time.Now}
}

// Timestamp formats t as ISO-8601 UTC with millisecond precision, using '-'
// in place of ':' and '.' so the result is safe in file names.
func Timestamp(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// FileName returns the backup file name for kind at t.
func FileName(kind Kind, t time.Time) string {
	return fmt.Sprintf("%s-%s.db", kind, Timestamp(t))
}

// Create copies the database into the backup folder.
func (s *Service) Create(ctx context.Context, kind Kind) (*Result, error) {
	dir := strings.TrimSpace(s.paths.GetBackupPath())
	if dir == "" {
		return nil, ErrPathNotConfigured
	}

	src, err := os.Open(s.dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDatabaseNotFound
		}
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}
	defer src.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	createdAt := s.now()
	target := filepath.Join(dir, FileName(kind, createdAt))

	size, err := copyAtomic(src, target)
	if err != nil {
		return nil, err
	}

	return &Result{Path: target, Size: size, CreatedAt: createdAt}, nil
}

// copyAtomic writes src to a temporary file next to target and renames it
// into place once the copy is complete.
func copyAtomic(src io.Reader, target string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".backup-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to copy database: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to flush backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("failed to finalize backup file: %w", err)
	}
	return size, nil
}

// List returns the backups in the configured folder, newest first. A missing
// or unconfigured folder yields no backups.
func (s *Service) List() ([]Result, error) {
	dir := strings.TrimSpace(s.paths.GetBackupPath())
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Result
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Result{
			Path:      filepath.Join(dir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func isBackupFile(name string) bool {
	if !strings.HasSuffix(name, ".db") {
		return false
	}
	for _, kind := range []Kind{KindManual, KindStartup, KindScheduled} {
		if strings.HasPrefix(name, string(kind)+"-") {
			return true
		}
	}
	return false
}
