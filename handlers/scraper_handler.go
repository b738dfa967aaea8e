package handlers

import (
	"context"
	"net/http"

	"techpulse/models"
	"techpulse/services"

	"github.com/gin-gonic/gin"
)

// ArticleScraper refreshes the cached article corpus
type ArticleScraper interface {
	ScrapeFields(ctx context.Context) (*services.ScrapeReport, error)
	ScrapeSubfields(ctx context.Context) (*services.ScrapeReport, error)
}

type ScraperHandler struct {
	corpus  *services.ArticleCorpus
	scraper ArticleScraper
}

// NewScraperHandler creates a new scraper handler
func NewScraperHandler(corpus *services.ArticleCorpus, scraper ArticleScraper) *ScraperHandler {
	return &ScraperHandler{
		corpus:  corpus,
		scraper: scraper,
	}
}

// FieldPapers returns the cached field-level articles
// GET /api/scraper/arxiv-papers
func (h *ScraperHandler) FieldPapers(c *gin.Context) {
	h.papers(c, services.CorpusFields)
}

// SubfieldPapers returns the cached subfield articles
// GET /api/scraper/arxiv-papers-sf
func (h *ScraperHandler) SubfieldPapers(c *gin.Context) {
	h.papers(c, services.CorpusSubfields)
}

func (h *ScraperHandler) papers(c *gin.Context, kind services.CorpusKind) {
	articles, err := h.corpus.Load(kind)
	if err != nil {
		respondError(c, err, "Failed to read articles")
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(articles, len(articles), -1))
}

// RunFieldScraper scrapes arXiv for every field
// GET /api/scraper/run-scraper
func (h *ScraperHandler) RunFieldScraper(c *gin.Context) {
	report, err := h.scraper.ScrapeFields(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to run scraper")
		return
	}
	respondScrape(c, report)
}

// RunSubfieldScraper scrapes arXiv for every subfield
// GET /api/scraper/run-scraper-sf
func (h *ScraperHandler) RunSubfieldScraper(c *gin.Context) {
	report, err := h.scraper.ScrapeSubfields(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to run subfield scraper")
		return
	}
	respondScrape(c, report)
}

func respondScrape(c *gin.Context, report *services.ScrapeReport) {
	resp := models.NewDataResponse(report)
	resp.Message = "Scraper completed successfully"
	c.JSON(http.StatusOK, resp)
}

// Backup copies the cached corpus files aside
// POST /api/scraper/backup
func (h *ScraperHandler) Backup(c *gin.Context) {
	written, err := h.corpus.Backup()
	if err != nil {
		respondError(c, err, "Failed to back up articles")
		return
	}
	if written == nil {
		written = []string{}
	}
	c.JSON(http.StatusOK, models.NewListResponse(written, len(written), -1))
}
