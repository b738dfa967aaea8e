package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"techpulse/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// InsightSink publishes the most recent insight text outside the database
type InsightSink interface {
	Publish(ctx context.Context, fieldID *uint, text string) error
}

// InsightFileName names the side file for a scope (nil = global)
func InsightFileName(fieldID *uint) string {
	if fieldID == nil {
		return "MostRecentInsight.txt"
	}
	return fmt.Sprintf("MostRecentField%dInsight.txt", *fieldID)
}

// =============================================================================
// File sink
// =============================================================================

// FileInsightSink writes side files into a directory
type FileInsightSink struct {
	dir string
}

func NewFileInsightSink(dir string) *FileInsightSink {
	return &FileInsightSink{dir: dir}
}

func (s *FileInsightSink) Publish(_ context.Context, fieldID *uint, text string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating insights directory: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, InsightFileName(fieldID)), []byte(text), 0o644)
}

// =============================================================================
// Object storage sink
// =============================================================================

// ObjectInsightSink mirrors side files to an S3-compatible bucket
type ObjectInsightSink struct {
	client *minio.Client
	bucket string
	region string

	mu    sync.Mutex
	ready bool
}

// NewObjectInsightSink creates a sink for cfg. The bucket is checked and, if
// needed, created on first use; a failed check is retried on the next publish.
func NewObjectInsightSink(cfg config.ObjectSinkConfig) (*ObjectInsightSink, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("insight sink endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("insight sink access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("insight sink bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init insight sink client: %w", err)
	}
	return &ObjectInsightSink{client: client, bucket: bucket, region: region}, nil
}

func (s *ObjectInsightSink) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.ready = true
	return nil
}

func (s *ObjectInsightSink) Publish(ctx context.Context, fieldID *uint, text string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	body := []byte(text)
	_, err := s.client.PutObject(ctx, s.bucket, InsightFileName(fieldID), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	return err
}

// =============================================================================
// Fan-out
// =============================================================================

// MultiSink publishes to every sink and joins their errors
type MultiSink []InsightSink

func (m MultiSink) Publish(ctx context.Context, fieldID *uint, text string) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, fieldID, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
