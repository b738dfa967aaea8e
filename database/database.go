package database

import (
	"fmt"
	"strings"
	"time"

	"techpulse/config"
	"techpulse/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// caseInsensitiveIndexes back the "one entity per name" rule. gorm tags
// cannot express expression indexes, so they are created with raw SQL that
// both Postgres and SQLite accept.
var caseInsensitiveIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_field_name_lower ON field (lower(field_name))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_subfield_name_lower ON subfield (field_id, lower(subfield_name))`,
}

// Open connects to the configured database driver
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table and the case-insensitive name indexes
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Field{},
		&models.Subfield{},
		&models.MetricObservation{},
		&models.Insight{},
		&models.Feedback{},
		&models.ModelParameters{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	for _, stmt := range caseInsensitiveIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// SeedTaxonomy inserts every field and subfield of the taxonomy that is not
// already stored. Existing rows are matched by name, ignoring case, and left untouched.
func SeedTaxonomy(db *gorm.DB, taxonomy *config.Taxonomy, log *zap.Logger) error {
	createdFields, createdSubfields := 0, 0

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, tf := range taxonomy.Fields {
			var field models.Field
			res := tx.Where("lower(field_name) = ?", strings.ToLower(tf.Name)).Limit(1).Find(&field)
			if res.Error != nil {
				return fmt.Errorf("looking up field %q: %w", tf.Name, res.Error)
			}
			if res.RowsAffected == 0 {
				field = models.Field{Name: tf.Name, Description: tf.Description}
				if err := tx.Create(&field).Error; err != nil {
					return fmt.Errorf("creating field %q: %w", tf.Name, err)
				}
				createdFields++
			}

			for _, ts := range tf.Subfields {
				var sub models.Subfield
				res := tx.Where("field_id = ? AND lower(subfield_name) = ?", field.ID, strings.ToLower(ts.Name)).Limit(1).Find(&sub)
				if res.Error != nil {
					return fmt.Errorf("looking up subfield %q: %w", ts.Name, res.Error)
				}
				if res.RowsAffected > 0 {
					continue
				}
				sub = models.Subfield{FieldID: field.ID, Name: ts.Name, Description: ts.Description}
				if err := tx.Create(&sub).Error; err != nil {
					return fmt.Errorf("creating subfield %q: %w", ts.Name, err)
				}
				createdSubfields++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("Taxonomy seeded",
		zap.Int("fields_created", createdFields),
		zap.Int("subfields_created", createdSubfields),
	)
	return nil
}

// SeedModelParameters stores the default sampling parameters when no row exists
func SeedModelParameters(db *gorm.DB, defaults config.AIDefaults, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.ModelParameters{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting model parameters: %w", err)
	}
	if count > 0 {
		log.Info("Model parameters already present, skipping seed", zap.Int64("rows", count))
		return nil
	}

	params := models.ModelParameters{
		Temperature: defaults.Temperature,
		TopP:        defaults.TopP,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&params).Error; err != nil {
		return fmt.Errorf("seeding model parameters: %w", err)
	}
	log.Info("Seeded default model parameters",
		zap.Float64("temperature", params.Temperature),
		zap.Float64("top_p", params.TopP),
	)
	return nil
}
