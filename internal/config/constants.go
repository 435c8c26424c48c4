package config

import "time"

const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./biblion.db"

	// DefaultBcryptCost is the bcrypt work factor for new password hashes
	DefaultBcryptCost = 12

	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 30 * time.Minute
)
