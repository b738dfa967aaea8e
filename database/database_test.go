package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"techpulse/config"
	"techpulse/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DatabaseDriver: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "test.db")}
	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DatabaseDriver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(db))
}

func TestMigrate_EnforcesCaseInsensitiveNames(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&models.Field{Name: "Quantum Computing"}).Error)
	assert.Error(t, db.Create(&models.Field{Name: "quantum computing"}).Error)

	require.NoError(t, db.Create(&models.Subfield{FieldID: 1, Name: "QKD"}).Error)
	assert.Error(t, db.Create(&models.Subfield{FieldID: 1, Name: "qkd"}).Error)
	assert.NoError(t, db.Create(&models.Subfield{FieldID: 2, Name: "qkd"}).Error)
}

func TestSeedTaxonomy(t *testing.T) {
	db := openTestDB(t)
	taxonomy := &config.Taxonomy{Fields: []config.TaxonomyField{
		{Name: "Quantum Computing", Description: "Qubits", Subfields: []config.TaxonomySubfield{
			{Name: "Quantum Cryptography"}, {Name: "Quantum Sensing"},
		}},
		{Name: "Generative AI"},
	}}

	require.NoError(t, SeedTaxonomy(db, taxonomy, zap.NewNop()))

	// A second run with a case variant must not duplicate anything.
	taxonomy.Fields[0].Name = "QUANTUM COMPUTING"
	require.NoError(t, SeedTaxonomy(db, taxonomy, zap.NewNop()))

	var fields []models.Field
	require.NoError(t, db.Preload("Subfields").Order("field_id").Find(&fields).Error)
	require.Len(t, fields, 2)
	assert.Equal(t, "Quantum Computing", fields[0].Name)
	assert.Len(t, fields[0].Subfields, 2)
	assert.Empty(t, fields[1].Subfields)
}

func TestSeedModelParameters(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, SeedModelParameters(db, config.DefaultAI(), zap.NewNop()))
	require.NoError(t, SeedModelParameters(db, config.AIDefaults{Temperature: 0.1, TopP: 0.2}, zap.NewNop()))

	var rows []models.ModelParameters
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.7, rows[0].Temperature)
	assert.Equal(t, 1.0, rows[0].TopP)
}
