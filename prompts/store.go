package prompts

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const cacheSize = 32

type cacheKey struct {
	name    string
	modTime int64
	size    int64
}

// Store resolves template names to text. Templates are cached by name and
// file stamp, so edits on disk are picked up on the next read.
type Store struct {
	fsys   fs.FS
	cache  *lru.Cache[cacheKey, string]
	logger *zap.Logger
}

// NewStore reads templates from dir, or from the built-in set when dir is empty
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return NewStoreFS(Defaults(), logger)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("prompt directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompt directory %s is not a directory", dir)
	}
	return NewStoreFS(os.DirFS(dir), logger)
}

// NewStoreFS reads templates from an arbitrary file system
func NewStoreFS(fsys fs.FS, logger *zap.Logger) (*Store, error) {
	cache, err := lru.New[cacheKey, string](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fsys: fsys, cache: cache, logger: logger}, nil
}

// Read returns the raw template text
func (s *Store) Read(name string) (string, error) {
	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		return "", fmt.Errorf("reading prompt template %s: %w", name, err)
	}

	key := cacheKey{name: name, modTime: info.ModTime().UnixNano(), size: info.Size()}
	if text, ok := s.cache.Get(key); ok {
		return text, nil
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return "", fmt.Errorf("reading prompt template %s: %w", name, err)
	}

	text := string(data)
	s.cache.Add(key, text)
	s.logger.Debug("Loaded prompt template", zap.String("template", name), zap.Int("bytes", len(data)))
	return text, nil
}

// Render reads a template and substitutes placeholder/value pairs in order.
// Only the first occurrence of each placeholder is replaced.
func (s *Store) Render(name string, pairs ...string) (string, error) {
	if len(pairs)%2 != 0 {
		return "", fmt.Errorf("rendering %s: odd number of placeholder arguments", name)
	}

	text, err := s.Read(name)
	if err != nil {
		return "", err
	}
	return Fill(text, pairs...), nil
}

// Fill performs literal, first-occurrence placeholder substitution
func Fill(text string, pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		text = strings.Replace(text, pairs[i], pairs[i+1], 1)
	}
	return text
}
