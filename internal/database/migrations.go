package database

import (
	"errors"
	"time"

	"github.com/origincircle/origin/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillLastActive = "2026-07-21_backfill_profile_last_active"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillLastActive, apply: backfillProfileLastActive},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillProfileLastActive stamps profiles written before the last-active
// column existed so activity labels never render a zero time.
func backfillProfileLastActive(db *gorm.DB) error {
	return db.Model(&users.Profile{}).
		Where("last_active_at IS NULL OR last_active_at = ?", time.Time{}).
		Update("last_active_at", time.Now().UTC()).Error
}
