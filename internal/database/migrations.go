package database

import (
	"fmt"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// Composite and ordering indexes that struct tags cannot express.
var postgresIndexes = []index{
	// allTasks ordering
	{"tasks", "idx_tasks_created_at_desc", "created_at DESC"},
	// myTasks: assigned_to_id = ? ORDER BY due_date
	{"tasks", "idx_tasks_assignee_due_date", "assigned_to_id, due_date"},
	// subtasksForTask ordering
	{"subtasks", "idx_subtasks_task_created_at", "task_id, created_at"},
	// refresh rotation lookups per user
	{"refresh_tokens", "idx_refresh_tokens_user_active", "user_id, revoked_at"},
}

// AddIndexes adds the indexes in postgresIndexes that do not exist yet.
func AddIndexes(db *gorm.DB) error {
	for _, idx := range postgresIndexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
