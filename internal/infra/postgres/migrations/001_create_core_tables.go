package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createCoreTables creates the videos and channels tables with indexes.
func createCoreTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_core_tables",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS channels (
					id VARCHAR(30) PRIMARY KEY,
					title VARCHAR(500) NOT NULL,
					description TEXT,

					subscriber_count BIGINT DEFAULT 0,
					video_count BIGINT DEFAULT 0,
					view_count BIGINT DEFAULT 0,

					country VARCHAR(5),
					language VARCHAR(10),

					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			err = tx.Exec(`
				CREATE TABLE IF NOT EXISTS videos (
					id VARCHAR(20) PRIMARY KEY,
					channel_id VARCHAR(30) NOT NULL,
					title VARCHAR(500) NOT NULL,
					description TEXT,
					category_id VARCHAR(10),
					tags TEXT[],

					duration_seconds INTEGER NOT NULL,
					published_at TIMESTAMP NOT NULL,

					-- Latest polled counters
					view_count BIGINT DEFAULT 0,
					like_count BIGINT DEFAULT 0,
					comment_count BIGINT DEFAULT 0,

					frozen BOOLEAN DEFAULT FALSE,

					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos(channel_id);",
				"CREATE INDEX IF NOT EXISTS idx_videos_published_at ON videos(published_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_videos_category_id ON videos(category_id);",
				"CREATE INDEX IF NOT EXISTS idx_videos_frozen ON videos(frozen);",
				"CREATE INDEX IF NOT EXISTS idx_channels_subscriber_count ON channels(subscriber_count DESC);",
			}
			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS videos;").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS channels;").Error
		},
	}
}
