// Package database handles schema migration for Steward
package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/aethra/steward/internal/models"
	"github.com/aethra/steward/internal/store"
	"github.com/aethra/steward/schema"
)

// RunMigrations creates the system tables and one data table per
// registered entity. Safe to run repeatedly.
func RunMigrations(db *gorm.DB, reg *schema.Registry, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	if err := db.AutoMigrate(&models.User{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("migrate system tables: %w", err)
	}

	for _, entity := range reg.All() {
		if err := store.CreateEntityTable(db, entity); err != nil {
			return err
		}
		log.Info("entity table ready", "entity", entity.Code, "table", entity.TableName())
	}
	return nil
}
