package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techpulse/models"
)

func TestArticleCorpus_MissingFileIsEmpty(t *testing.T) {
	corpus := NewArticleCorpus(t.TempDir(), testLogger())

	articles, err := corpus.ForField(context.Background(), "Quantum Computing", 5)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestArticleCorpus_ForFieldAndSubfield(t *testing.T) {
	corpus := NewArticleCorpus(t.TempDir(), testLogger())
	ctx := context.Background()

	require.NoError(t, corpus.Save(CorpusFields, []models.Article{
		{ID: "a", Field: "QC", Published: "2024-01-01T00:00:00Z"},
		{ID: "b", Field: "QC", Published: "2024-03-01T00:00:00Z"},
		{ID: "c", Field: "QC", Published: "2024-02-01T00:00:00Z"},
		{ID: "d", Field: "AI", Published: "2025-01-01T00:00:00Z"},
	}))
	require.NoError(t, corpus.Save(CorpusSubfields, []models.Article{
		{ID: "x", SubfieldID: 1, Published: "2024-01-01T00:00:00Z"},
		{ID: "y", SubfieldID: 1, Published: "2024-06-01T00:00:00Z"},
		{ID: "z", SubfieldID: 2, Published: "2025-01-01T00:00:00Z"},
	}))

	field, err := corpus.ForField(ctx, "QC", 2)
	require.NoError(t, err)
	require.Len(t, field, 2)
	assert.Equal(t, "b", field[0].ID)
	assert.Equal(t, "c", field[1].ID)

	sub, err := corpus.ForSubfield(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Equal(t, "y", sub[0].ID)
}

func TestArticleCorpus_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arxiv_papers.json"), []byte("{not json"), 0o644))
	corpus := NewArticleCorpus(dir, testLogger())

	_, err := corpus.Load(CorpusFields)
	assert.Error(t, err)
}

func TestArticleCorpus_Backup(t *testing.T) {
	dir := t.TempDir()
	corpus := NewArticleCorpus(dir, testLogger())
	corpus.now = func() time.Time { return time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC) }

	require.NoError(t, corpus.Save(CorpusFields, []models.Article{{ID: "a", Field: "QC"}}))

	written, err := corpus.Backup()
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, filepath.Join(dir, "backup_fields_20250506T070809Z.json"), written[0])

	original, err := os.ReadFile(corpus.Path(CorpusFields))
	require.NoError(t, err)
	copied, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}
