package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"techpulse/config"
	"techpulse/models"
	"techpulse/utils"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FieldLister supplies the taxonomy to scrape for
type FieldLister interface {
	ListFields(ctx context.Context, includeSubfields bool) ([]models.Field, error)
}

// ScrapeReport summarizes one scrape run
type ScrapeReport struct {
	Kind    CorpusKind `json:"kind"`
	Queries int        `json:"queries"`
	Failed  int        `json:"failed"`
	Fetched int        `json:"fetched"`
	Total   int        `json:"total"`
}

// ArxivScraper queries the arXiv Atom API and merges results into the corpus
type ArxivScraper struct {
	cfg     config.ArxivConfig
	fields  FieldLister
	corpus  *ArticleCorpus
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewArxivScraper creates a scraper paced at one request per RequestInterval
func NewArxivScraper(cfg config.ArxivConfig, fields FieldLister, corpus *ArticleCorpus, logger *zap.Logger) *ArxivScraper {
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	return &ArxivScraper{
		cfg:     cfg,
		fields:  fields,
		corpus:  corpus,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// ScrapeFields fetches recent papers for every field and merges them into
// the field corpus. A failing query is logged and skipped.
func (s *ArxivScraper) ScrapeFields(ctx context.Context) (*ScrapeReport, error) {
	fields, err := s.fields.ListFields(ctx, false)
	if err != nil {
		return nil, err
	}

	report := &ScrapeReport{Kind: CorpusFields}
	var fetched []models.Article
	for _, field := range fields {
		if s.excluded(field.Name) {
			continue
		}
		report.Queries++

		articles, err := s.fetch(ctx, "all:"+field.Name, s.cfg.MaxResultsField)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Failed++
			s.logger.Error("arXiv query failed", zap.String("field", field.Name), zap.Error(err))
			continue
		}
		for i := range articles {
			articles[i].Field = field.Name
		}
		s.logger.Info("Fetched arXiv papers", zap.String("field", field.Name), zap.Int("count", len(articles)))
		fetched = append(fetched, articles...)
	}

	return s.merge(report, fetched)
}

// ScrapeSubfields fetches the newest papers for every subfield, restricted
// to the configured arXiv categories
func (s *ArxivScraper) ScrapeSubfields(ctx context.Context) (*ScrapeReport, error) {
	fields, err := s.fields.ListFields(ctx, true)
	if err != nil {
		return nil, err
	}

	report := &ScrapeReport{Kind: CorpusSubfields}
	var fetched []models.Article
	for _, field := range fields {
		if s.excluded(field.Name) {
			continue
		}
		for _, sub := range field.Subfields {
			report.Queries++

			articles, err := s.fetch(ctx, s.subfieldQuery(field.Name, sub.Name), s.cfg.MaxResultsSubfield)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				report.Failed++
				s.logger.Error("arXiv query failed",
					zap.String("field", field.Name),
					zap.String("subfield", sub.Name),
					zap.Error(err),
				)
				continue
			}
			if len(articles) == 0 {
				s.logger.Warn("No arXiv entries for subfield", zap.String("subfield", sub.Name))
			}
			for i := range articles {
				articles[i].FieldName = field.Name
				articles[i].FieldID = field.ID
				articles[i].SubfieldName = sub.Name
				articles[i].SubfieldID = sub.ID
			}
			fetched = append(fetched, articles...)
		}
	}

	return s.merge(report, fetched)
}

func (s *ArxivScraper) merge(report *ScrapeReport, fetched []models.Article) (*ScrapeReport, error) {
	existing, err := s.corpus.Load(report.Kind)
	if err != nil {
		return nil, err
	}
	merged := utils.MergeByKey(existing, fetched)
	if err := s.corpus.Save(report.Kind, merged); err != nil {
		return nil, err
	}

	report.Fetched = len(fetched)
	report.Total = len(merged)
	s.logger.Info("Article corpus updated",
		zap.String("kind", string(report.Kind)),
		zap.Int("queries", report.Queries),
		zap.Int("failed", report.Failed),
		zap.Int("fetched", report.Fetched),
		zap.Int("total", report.Total),
	)
	return report, nil
}

func (s *ArxivScraper) excluded(fieldName string) bool {
	for _, name := range s.cfg.ExcludedFields {
		if name == fieldName {
			return true
		}
	}
	return false
}

func (s *ArxivScraper) subfieldQuery(fieldName, subfieldName string) string {
	cats := make([]string, 0, len(s.cfg.Categories))
	for _, c := range s.cfg.Categories {
		cats = append(cats, "cat:"+c)
	}
	q := fieldName + " AND " + subfieldName
	if len(cats) > 0 {
		q += " AND (" + strings.Join(cats, " OR ") + ")"
	}
	return q
}

func (s *ArxivScraper) fetch(ctx context.Context, query string, maxResults int) ([]models.Article, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("max_results", fmt.Sprint(maxResults))
	params.Set("sortBy", "submittedDate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv returned status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv feed: %w", err)
	}

	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, articleFromItem(item))
	}
	return articles, nil
}

func articleFromItem(item *gofeed.Item) models.Article {
	a := models.Article{
		ID:        path.Base(strings.TrimSpace(item.GUID)),
		Title:     collapseSpace(item.Title),
		Published: item.Published,
		Summary:   collapseSpace(item.Description),
		Link:      item.Link,
		Authors:   []string{},
	}
	if a.ID == "." || a.ID == "/" {
		a.ID = ""
	}
	if a.Title == "" {
		a.Title = "Unknown Title"
	}
	if a.Summary == "" {
		a.Summary = "No Summary Available"
	}
	if a.Published == "" {
		a.Published = "Unknown Date"
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			a.Authors = append(a.Authors, author.Name)
		}
	}
	return a
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
