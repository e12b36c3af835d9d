package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationDir = "migrations"

// MigrateVersioned applies the goose migrations holding Postgres specific
// indexes and constraints. Other drivers rely on AutoMigrate alone.
func MigrateVersioned(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		log.Printf("Skipping versioned migrations for %s", db.Dialector.Name())
		return nil
	}
	return withGoose(db, func(sqlDB *sql.DB) error {
		if err := goose.Up(sqlDB, migrationDir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	})
}

// RollbackVersioned reverts the most recent goose migration.
func RollbackVersioned(db *gorm.DB) error {
	return withGoose(db, func(sqlDB *sql.DB) error {
		if err := goose.Down(sqlDB, migrationDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		return nil
	})
}

// VersionedStatus logs the applied state of every goose migration.
func VersionedStatus(db *gorm.DB) error {
	return withGoose(db, func(sqlDB *sql.DB) error {
		return goose.Status(sqlDB, migrationDir)
	})
}

func withGoose(db *gorm.DB, fn func(*sql.DB) error) error {
	if db.Dialector.Name() != "postgres" {
		return fmt.Errorf("versioned migrations require postgres, got %s", db.Dialector.Name())
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return fn(sqlDB)
}
