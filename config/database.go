package config

import (
	"fmt"
	"log"

	"github.com/atelier-jewels/atelier-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DefaultSQLiteDSN is used when DATABASE_DRIVER=sqlite and no DATABASE_URL is set
const DefaultSQLiteDSN = "file:atelier.db?_foreign_keys=on"

var DB *gorm.DB

// ConnectDatabase opens the configured database and stores it as the package instance
func ConnectDatabase(cfg *Config) error {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = DefaultSQLiteDSN
			log.Println("DATABASE_URL not set, using default:", dsn)
		}
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Println("Database connection established successfully")
	return nil
}

// Migrate creates or updates every table the stores use
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ResetDatabase drops every table and migrates again. Used by tests and
// the seed command to start from a clean store.
func ResetDatabase(db *gorm.DB) error {
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return Migrate(db)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
