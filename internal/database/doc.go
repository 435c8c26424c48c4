// Package database provides the data access layer for the library.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, partial unique indexes
//	├── seed.go          # Badge catalog and default categories
//	├── errors.go        # Constraint violation helpers
//	├── books/           # Book catalogue queries and bulk updates
//	├── authors/         # Author lookup, gender and biography
//	├── categories/      # Category tree storage
//	├── locations/       # Location tree storage
//	├── tags/            # Tag management
//	├── statuses/        # Per-user reading statuses
//	├── loans/           # Loan records
//	├── badges/          # XP and badge awards
//	├── settings/        # Application settings
//	├── users/           # User management
//	└── audit/           # Audit log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type wrapping a *gorm.DB. Because
// the handle may be a transaction, services build repositories inside
// gorm's Transaction callback when several writes must commit together:
//
//	db, err := database.NewDatabase("./biblion.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.GetByID(123)
//
//	err = db.DB.Transaction(func(tx *gorm.DB) error {
//		return statuses.NewRepository(tx).Upsert(userID, bookID, entities.StatusRead)
//	})
//
// # Invariants Backed by Indexes
//
// Migrate creates partial unique indexes for the rules that must hold under
// concurrent writes: one active reader per book, one open loan per book and
// unique non-empty ISBNs. Use IsUniqueViolation to map a failed insert back to
// the domain conflict.
package database
