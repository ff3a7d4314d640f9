package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSnapshots creates the append-only snapshots table. The unique
// (video_id, captured_at) pair backs idempotent poll ingestion.
func createSnapshots() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_create_snapshots",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS snapshots (
					id BIGSERIAL PRIMARY KEY,
					video_id VARCHAR(20) NOT NULL,
					captured_at TIMESTAMP NOT NULL,

					view_count BIGINT DEFAULT 0,
					like_count BIGINT DEFAULT 0,
					comment_count BIGINT DEFAULT 0,

					-- Derived against the previous snapshot; NULL for the first
					views_since_last BIGINT,
					view_growth_rate DOUBLE PRECISION,
					like_growth_rate DOUBLE PRECISION,
					comment_growth_rate DOUBLE PRECISION,

					hours_since_published DOUBLE PRECISION DEFAULT 0,
					engagement_rate DOUBLE PRECISION DEFAULT 0,

					is_anomaly BOOLEAN DEFAULT FALSE,

					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

					CONSTRAINT uq_snapshots_video_captured UNIQUE (video_id, captured_at)
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_snapshots_video_id ON snapshots(video_id);",
				"CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots(captured_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_snapshots_is_anomaly ON snapshots(is_anomaly) WHERE is_anomaly;",
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS snapshots;").Error
		},
	}
}
