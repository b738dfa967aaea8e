package models

import (
	"fmt"
	"strings"
	"time"
)

// Article represents one arXiv paper in the scraped corpus.
// Field-level scrapes set Field; subfield scrapes set the FieldName/FieldID
// and SubfieldName/SubfieldID pairs instead.
type Article struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Published    string   `json:"published"`
	Summary      string   `json:"summary"`
	Field        string   `json:"field,omitempty"`
	FieldName    string   `json:"field_name,omitempty"`
	FieldID      uint     `json:"field_id,omitempty"`
	SubfieldName string   `json:"subfield_name,omitempty"`
	SubfieldID   uint     `json:"subfield_id,omitempty"`
	Link         string   `json:"link,omitempty"`
}

// PublishedAt parses the published timestamp. Unparsable dates yield the zero time.
func (a Article) PublishedAt() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(a.Published)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DedupeKey identifies an article within its association. The same paper may
// appear once per field, or once per (field, subfield) pair.
func (a Article) DedupeKey() string {
	if a.SubfieldID != 0 || a.SubfieldName != "" {
		return fmt.Sprintf("%s-%d-%d", a.ID, a.FieldID, a.SubfieldID)
	}
	return fmt.Sprintf("%s-%s", a.ID, a.Field)
}

// ArticleSortable interface implementation for generic sorting

// GetPublicationDateUnix returns publication date as Unix timestamp for sorting
func (a Article) GetPublicationDateUnix() int64 {
	t := a.PublishedAt()
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// GetID returns the article ID
func (a Article) GetID() string {
	return a.ID
}

// GetDedupeKey returns the merge key
func (a Article) GetDedupeKey() string {
	return a.DedupeKey()
}
