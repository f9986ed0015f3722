package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/curiofm/curio-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds indexes the struct tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_recommendations_feed_recent", `CREATE INDEX IF NOT EXISTS idx_recommendations_feed_recent ON recommendations (created_at DESC)`},
		{"idx_recommendations_track_created", `CREATE INDEX IF NOT EXISTS idx_recommendations_track_created ON recommendations (track_id, created_at)`},
		{"idx_tips_recommendation_tipper", `CREATE INDEX IF NOT EXISTS idx_tips_recommendation_tipper ON tips (recommendation_id, tipper_fid)`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
