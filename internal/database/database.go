package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/biblion/internal/entities"
)

// partialIndexes back the single-writer invariants that AutoMigrate cannot
// express through struct tags.
var partialIndexes = []string{
	// At most one active reader per book.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reading_statuses_one_reader
		ON reading_statuses(book_id) WHERE status = 'Reading'`,
	// At most one open loan per book.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_one_open
		ON loans(book_id) WHERE returned_at IS NULL`,
	// ISBNs are unique when present.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_books_isbn_unique
		ON books(isbn) WHERE isbn <> ''`,
}

type Database struct {
	DB *gorm.DB

	// Path is the database file on disk, used by backups.
	Path string
}

func NewDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Warn)
}

// NewQuietDatabase opens the database with ORM logging disabled. Tests and
// CLI commands use it.
func NewQuietDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Silent)
}

func open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	database := &Database{DB: db, Path: dbPath}

	if err := database.seedBadges(); err != nil {
		return nil, fmt.Errorf("failed to seed badges: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

// Migrate creates or updates the schema, including the partial unique
// indexes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Tag{},
		&entities.Category{},
		&entities.Location{},
		&entities.Book{},
		&entities.ReadingStatus{},
		&entities.Loan{},
		&entities.Badge{},
		&entities.UserBadge{},
		&entities.Setting{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// HasUsers reports whether first-run setup has been completed.
func (d *Database) HasUsers() (bool, error) {
	var count int64
	if err := d.DB.Model(&entities.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000"
}
