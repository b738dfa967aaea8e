package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"techpulse/models"
	"techpulse/utils"

	"go.uber.org/zap"
)

// CorpusKind names one of the cached article files
type CorpusKind string

const (
	CorpusFields    CorpusKind = "fields"
	CorpusSubfields CorpusKind = "subfields"
)

var corpusFiles = map[CorpusKind]string{
	CorpusFields:    "arxiv_papers.json",
	CorpusSubfields: "arxiv_papers_sf.json",
}

// ArticleCorpus reads and writes the locally cached arXiv articles
type ArticleCorpus struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewArticleCorpus creates a corpus rooted at dir
func NewArticleCorpus(dir string, logger *zap.Logger) *ArticleCorpus {
	return &ArticleCorpus{dir: dir, logger: logger, now: time.Now}
}

// Path returns the file backing kind
func (c *ArticleCorpus) Path(kind CorpusKind) string {
	return filepath.Join(c.dir, corpusFiles[kind])
}

// Load returns every cached article of kind. A missing file is an empty corpus.
func (c *ArticleCorpus) Load(kind CorpusKind) ([]models.Article, error) {
	if _, ok := corpusFiles[kind]; !ok {
		return nil, fmt.Errorf("unknown corpus %q", kind)
	}

	path := c.Path(kind)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("Article corpus not found, treating as empty", zap.String("path", path))
		return []models.Article{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading article corpus %s: %w", path, err)
	}

	var articles []models.Article
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.Article{}, nil
	}
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decoding article corpus %s: %w", path, err)
	}
	return articles, nil
}

// ForField returns the n most recent articles scraped for fieldName
func (c *ArticleCorpus) ForField(_ context.Context, fieldName string, n int) ([]models.Article, error) {
	articles, err := c.Load(CorpusFields)
	if err != nil {
		return nil, err
	}
	return utils.NewestN(articles, n, func(a models.Article) bool {
		return a.Field == fieldName
	}), nil
}

// ForSubfield returns the n most recent articles scraped for subfieldID
func (c *ArticleCorpus) ForSubfield(_ context.Context, subfieldID uint, n int) ([]models.Article, error) {
	articles, err := c.Load(CorpusSubfields)
	if err != nil {
		return nil, err
	}
	return utils.NewestN(articles, n, func(a models.Article) bool {
		return a.SubfieldID == subfieldID
	}), nil
}

// Save replaces the corpus file atomically
func (c *ArticleCorpus) Save(kind CorpusKind, articles []models.Article) error {
	if _, ok := corpusFiles[kind]; !ok {
		return fmt.Errorf("unknown corpus %q", kind)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating scrape directory: %w", err)
	}

	data, err := json.MarshalIndent(articles, "", "    ")
	if err != nil {
		return err
	}

	path := c.Path(kind)
	tmp, err := os.CreateTemp(c.dir, corpusFiles[kind]+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing article corpus %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing article corpus %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing article corpus %s: %w", path, err)
	}
	return nil
}

// Backup copies every existing corpus file to backup_<kind>_<timestamp>.json
// and returns the paths written. Missing files are skipped.
func (c *ArticleCorpus) Backup() ([]string, error) {
	stamp := c.now().UTC().Format("20060102T150405Z")
	var written []string

	for _, kind := range []CorpusKind{CorpusFields, CorpusSubfields} {
		src, err := os.Open(c.Path(kind))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return written, err
		}

		dst := filepath.Join(c.dir, fmt.Sprintf("backup_%s_%s.json", kind, stamp))
		err = copyFile(dst, src)
		src.Close()
		if err != nil {
			return written, fmt.Errorf("backing up %s: %w", kind, err)
		}
		c.logger.Info("Article corpus backed up", zap.String("kind", string(kind)), zap.String("path", dst))
		written = append(written, dst)
	}
	return written, nil
}

func copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
