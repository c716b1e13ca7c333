package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
)

type extraIndex struct {
	model interface{}
	name  string
}

// Indexes created in addition to the ones declared in struct tags. Names
// refer to gorm index tags, so the Migrator builds portable DDL.
var extraIndexes = []extraIndex{
	{&models.Task{}, "idx_tasks_column_position"},
	{&models.Activity{}, "idx_activities_subject"},
	{&models.Label{}, "idx_labels_project_name"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range extraIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			slog.Debug("index already exists, skipping", slog.String("index", idx.name))
			continue
		}

		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", slog.String("index", idx.name))
	}

	return nil
}

// MigrateDatabase runs the post-AutoMigrate steps
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
