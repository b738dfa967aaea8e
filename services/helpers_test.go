package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"techpulse/config"
	"techpulse/database"
	"techpulse/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DatabaseDriver: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "techpulse.db")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedField(t *testing.T, db *gorm.DB, name string) models.Field {
	t.Helper()
	field := models.Field{Name: name, Description: name + " description"}
	require.NoError(t, db.Create(&field).Error)
	return field
}

func seedSubfield(t *testing.T, db *gorm.DB, fieldID uint, name string) models.Subfield {
	t.Helper()
	sub := models.Subfield{FieldID: fieldID, Name: name, Description: name + " description"}
	require.NoError(t, db.Create(&sub).Error)
	return sub
}

func uintPtr(v uint) *uint { return &v }

// steppingClock returns a clock that advances one minute per call
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

// fakeGenerator replays canned responses and records prompts
type fakeGenerator struct {
	responses []string
	err       error
	prompts   []string
	params    []SamplingParams
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, params SamplingParams) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, params)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

// fakeCompleter answers per model and records requests
type fakeCompleter struct {
	answers  map[string]string
	failures map[string]error
	requests []CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.failures[req.Model]; ok {
		return "", err
	}
	return f.answers[req.Model], nil
}

type failingSink struct {
	calls int
}

func (s *failingSink) Publish(context.Context, *uint, string) error {
	s.calls++
	return errors.New("disk full")
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
