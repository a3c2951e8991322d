package database

import (
	"gorm.io/gorm"

	"github.com/weiwangfds/vidshare/internal/logger"
)

// Migrate creates the tables and indexes if they do not exist. Existing
// columns are never dropped or rewritten.
func Migrate(db *gorm.DB) error {
	models := []interface{}{&Video{}, &StorageLog{}}
	for _, m := range models {
		if !db.Migrator().HasTable(m) {
			logger.Infof("creating table for %T", m)
		}
	}
	return db.AutoMigrate(models...)
}
