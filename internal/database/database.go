package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/models"
)

// Connect opens the datastore named by dsn. DSNs prefixed with "sqlite:" or "file:" use the
// embedded SQLite driver, anything else is handed to PostgreSQL.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn must not be empty")
	}

	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return ConnectSQLite(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		return ConnectSQLite(dsn)
	default:
		return ConnectPostgres(dsn)
	}
}

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite opens a SQLite database, mainly for local development and tests.
func ConnectSQLite(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn must not be empty")
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
	}
	// One connection keeps in-memory databases alive and the pragma below in effect.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
	}

	return db, nil
}

// roleEnumStatements create the userrole enum and drop the legacy CHECK constraint it replaces.
// Every statement is safe to run again.
var roleEnumStatements = []string{
	`ALTER TABLE IF EXISTS users DROP CONSTRAINT IF EXISTS users_role_check`,
	`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = '` + models.RoleEnumType + `') THEN
		CREATE TYPE ` + models.RoleEnumType + ` AS ENUM ('` + string(models.RoleTeacher) + `', '` + string(models.RoleStudent) + `');
	END IF;
END
$$`,
}

// roleColumnStatements convert an existing string users.role column to the enum.
var roleColumnStatements = []string{
	`ALTER TABLE users ALTER COLUMN role TYPE ` + models.RoleEnumType + ` USING role::` + models.RoleEnumType,
	`ALTER TABLE users ALTER COLUMN role SET NOT NULL`,
}

func execAll(tx *gorm.DB, statements []string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// MigrateRoles converts users.role to the userrole enum without touching other tables.
// It only applies to PostgreSQL.
func MigrateRoles(db *gorm.DB) error {
	if name := db.Dialector.Name(); name != "postgres" {
		return fmt.Errorf("role enum requires postgres, got %s", name)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := execAll(tx, roleEnumStatements); err != nil {
			return err
		}
		return execAll(tx, roleColumnStatements)
	})
}

// Migrate creates or updates every table the API relies on. On PostgreSQL the userrole
// enum is created first, so AutoMigrate creates or converts users.role as that enum.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Transaction(func(tx *gorm.DB) error {
			return execAll(tx, roleEnumStatements)
		}); err != nil {
			return fmt.Errorf("prepare role enum: %w", err)
		}
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Homework{},
		&models.StudentHomework{},
		&models.Submission{},
		&models.AIInteraction{},
	)
}

// Ping checks that the datastore answers a trivial query.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database not configured")
	}

	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
