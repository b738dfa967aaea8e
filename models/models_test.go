package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticlePublishedAt(t *testing.T) {
	tests := []struct {
		name      string
		published string
		want      time.Time
	}{
		{"rfc3339", "2024-03-05T17:59:59Z", time.Date(2024, 3, 5, 17, 59, 59, 0, time.UTC)},
		{"no zone", "2024-03-05T17:59:59", time.Date(2024, 3, 5, 17, 59, 59, 0, time.UTC)},
		{"date only", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"unknown", "Unknown Date", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Article{Published: tt.published}
			assert.True(t, tt.want.Equal(a.PublishedAt()))
		})
	}
}

func TestArticleDedupeKey(t *testing.T) {
	field := Article{ID: "2403.01234v1", Field: "Quantum Computing"}
	sub := Article{ID: "2403.01234v1", FieldID: 3, SubfieldID: 7, SubfieldName: "QKD"}

	assert.Equal(t, "2403.01234v1-Quantum Computing", field.DedupeKey())
	assert.Equal(t, "2403.01234v1-3-7", sub.DedupeKey())
	assert.Equal(t, int64(0), Article{Published: "bad"}.GetPublicationDateUnix())
}

func TestErrorKindsUnwrap(t *testing.T) {
	root := errors.New("connection reset")

	gen := fmt.Errorf("update metrics: %w", &GenerationError{Model: "gpt-3.5-turbo", Err: root})
	var genErr *GenerationError
	assert.True(t, errors.As(gen, &genErr))
	assert.ErrorIs(t, gen, root)

	persist := fmt.Errorf("insert: %w", &PersistenceError{Op: "insert observation", Err: root})
	var pErr *PersistenceError
	assert.True(t, errors.As(persist, &pErr))
	assert.Equal(t, "insert observation: connection reset", pErr.Error())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Field with ID 4 not found", (&NotFoundError{Entity: "Field", ID: 4}).Error())
	assert.Equal(t, "field name mismatch: expected AI, got ML",
		(&NameMismatchError{Kind: "field", Expected: "AI", Got: "ML"}).Error())
	assert.Equal(t, "invalid field response format (missing source, rationale)",
		(&ParseError{Kind: "field", Missing: []string{"source", "rationale"}}).Error())
	assert.Equal(t, "field_id: is required", (&ValidationError{Field: "field_id", Message: "is required"}).Error())
}

func TestPageQueryNormalize(t *testing.T) {
	assert.Equal(t, PageQuery{Limit: 10, Offset: 0}, PageQuery{Limit: 0, Offset: -3}.Normalize())
	assert.Equal(t, PageQuery{Limit: 25, Offset: 50}, PageQuery{Limit: 25, Offset: 50}.Normalize())
}

func TestNewListResponse(t *testing.T) {
	resp := NewListResponse([]int{1, 2}, 2, -1)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, *resp.Count)
	assert.Nil(t, resp.Total)

	resp = NewListResponse([]int{1}, 1, 9)
	assert.Equal(t, int64(9), *resp.Total)
}
