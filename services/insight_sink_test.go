package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techpulse/config"
)

func TestInsightFileName(t *testing.T) {
	assert.Equal(t, "MostRecentInsight.txt", InsightFileName(nil))
	assert.Equal(t, "MostRecentField7Insight.txt", InsightFileName(uintPtr(7)))
}

func TestFileInsightSink_OverwritesLatest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sink := NewFileInsightSink(dir)
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, nil, "first"))
	require.NoError(t, sink.Publish(ctx, nil, "second"))
	require.NoError(t, sink.Publish(ctx, uintPtr(3), "field three"))

	global, err := os.ReadFile(filepath.Join(dir, "MostRecentInsight.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(global))

	field, err := os.ReadFile(filepath.Join(dir, "MostRecentField3Insight.txt"))
	require.NoError(t, err)
	assert.Equal(t, "field three", string(field))
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	dir := t.TempDir()
	bad := &failingSink{}
	sink := MultiSink{bad, NewFileInsightSink(dir)}

	err := sink.Publish(context.Background(), nil, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, bad.calls)

	// The healthy sink still ran.
	_, statErr := os.Stat(filepath.Join(dir, "MostRecentInsight.txt"))
	assert.NoError(t, statErr)
}

func TestNewObjectInsightSink_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ObjectSinkConfig
	}{
		{"no endpoint", config.ObjectSinkConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{"no credentials", config.ObjectSinkConfig{Endpoint: "localhost:9000", Bucket: "b"}},
		{"no bucket", config.ObjectSinkConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewObjectInsightSink(tt.cfg)
			assert.Error(t, err)
		})
	}

	sink, err := NewObjectInsightSink(config.ObjectSinkConfig{
		Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "insights",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", sink.region)
}

// fakeObjectStore answers the bucket and object calls made by the object sink.
// headStatus holds the status of successive bucket checks; once it runs out
// every check succeeds.
type fakeObjectStore struct {
	mu         sync.Mutex
	headStatus []int
	heads      int
	buckets    int
	objects    map[string]string
}

func (f *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		f.heads++
		status := http.StatusOK
		if len(f.headStatus) > 0 {
			status, f.headStatus = f.headStatus[0], f.headStatus[1:]
		}
		w.WriteHeader(status)
	case r.Method == http.MethodPut && len(parts) == 1:
		f.buckets++
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && len(parts) == 2:
		body, _ := io.ReadAll(r.Body)
		f.objects[parts[0]+"/"+parts[1]] = string(body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newObjectSinkAgainst(t *testing.T, store *fakeObjectStore) *ObjectInsightSink {
	t.Helper()
	store.objects = map[string]string{}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	sink, err := NewObjectInsightSink(config.ObjectSinkConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "insights",
	})
	require.NoError(t, err)
	return sink
}

func TestObjectInsightSink_RetriesBucketCheckAfterFailure(t *testing.T) {
	store := &fakeObjectStore{headStatus: []int{http.StatusForbidden}}
	sink := newObjectSinkAgainst(t, store)
	ctx := context.Background()

	err := sink.Publish(ctx, nil, "first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure bucket")
	assert.Empty(t, store.objects)

	require.NoError(t, sink.Publish(ctx, nil, "second"))
	assert.Equal(t, "second", store.objects["insights/MostRecentInsight.txt"])
	assert.Equal(t, 2, store.heads)

	require.NoError(t, sink.Publish(ctx, uintPtr(4), "field four"))
	assert.Equal(t, "field four", store.objects["insights/MostRecentField4Insight.txt"])
	assert.Equal(t, 2, store.heads, "bucket is checked only until it succeeds")
}

func TestObjectInsightSink_CreatesMissingBucket(t *testing.T) {
	store := &fakeObjectStore{headStatus: []int{http.StatusNotFound}}
	sink := newObjectSinkAgainst(t, store)

	require.NoError(t, sink.Publish(context.Background(), nil, "text"))
	assert.Equal(t, 1, store.buckets)
	assert.Equal(t, "text", store.objects["insights/MostRecentInsight.txt"])
}
