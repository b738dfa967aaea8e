package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"techpulse/config"
	"techpulse/database"
	"techpulse/handlers"
	"techpulse/prompts"
	"techpulse/services"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "techpulse",
	Short:        "Technology radar insight pipeline",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cfg.IsProduction() {
			logger, err = zap.NewProduction()
		} else {
			logger, err = zap.NewDevelopment()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(seedCmd)

	scrapeCmd.AddCommand(scrapeFieldsCmd)
	scrapeCmd.AddCommand(scrapeSubfieldsCmd)
}

func openDatabase() (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Database ready", zap.String("driver", cfg.DatabaseDriver))
	return db, nil
}

// =============================================================================
// serve
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDatabase()
		if err != nil {
			return err
		}

		completer, err := services.NewCompleter(ctx, cfg)
		if err != nil {
			return err
		}
		llm := services.NewLLMService(completer, cfg.AI, cfg.AITimeout, logger)

		store, err := prompts.NewStore(cfg.PromptsDir, logger)
		if err != nil {
			return err
		}

		sink, err := insightSink()
		if err != nil {
			return err
		}

		taxonomy := services.NewTaxonomyService(db, logger)
		metrics := services.NewMetricsRepository(db)
		insights := services.NewInsightRepository(db)
		parameters := services.NewParametersService(db, cfg.AI, logger)
		corpus := services.NewArticleCorpus(cfg.ScrapeDir, logger)
		scraper := services.NewArxivScraper(cfg.Arxiv, taxonomy, corpus, logger)

		orchestrator := services.NewInsightOrchestrator(services.OrchestratorDeps{
			Taxonomy:   taxonomy,
			Metrics:    metrics,
			Insights:   insights,
			Parameters: parameters,
			Corpus:     corpus,
			Prompts:    store,
			Generator:  llm,
			Sink:       sink,
		}, services.OrchestratorConfig{
			AI:                  cfg.AI,
			ArticlesPerField:    cfg.ArticlesPerField,
			ArticlesPerSubfield: cfg.ArticlesPerSubfield,
		}, logger)

		router := handlers.NewRouter(handlers.Handlers{
			AI:      handlers.NewAIHandler(orchestrator),
			DB:      handlers.NewDBHandler(taxonomy, metrics, insights, parameters),
			Scraper: handlers.NewScraperHandler(corpus, scraper),
		}, handlers.RouterOptions{
			Production:     cfg.IsProduction(),
			AllowedOrigins: cfg.CORSOrigins,
		}, logger)

		srv := &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Server listening",
				zap.String("port", cfg.ServerPort),
				zap.String("provider", cfg.LLMProvider),
				zap.String("model", cfg.AI.Model))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func insightSink() (services.InsightSink, error) {
	file := services.NewFileInsightSink(cfg.InsightsDir)
	if !cfg.Insight.Enabled() {
		return file, nil
	}

	object, err := services.NewObjectInsightSink(cfg.Insight)
	if err != nil {
		return nil, err
	}
	logger.Info("Mirroring insights to object storage",
		zap.String("endpoint", cfg.Insight.Endpoint),
		zap.String("bucket", cfg.Insight.Bucket))
	return services.MultiSink{file, object}, nil
}

// =============================================================================
// scrape
// =============================================================================

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Refresh the cached arXiv corpus",
}

var scrapeFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Scrape recent papers for every field",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context(), services.CorpusFields)
	},
}

var scrapeSubfieldsCmd = &cobra.Command{
	Use:   "subfields",
	Short: "Scrape recent papers for every subfield",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd.Context(), services.CorpusSubfields)
	},
}

func runScrape(ctx context.Context, kind services.CorpusKind) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	corpus := services.NewArticleCorpus(cfg.ScrapeDir, logger)
	scraper := services.NewArxivScraper(cfg.Arxiv, services.NewTaxonomyService(db, logger), corpus, logger)

	var report *services.ScrapeReport
	if kind == services.CorpusSubfields {
		report, err = scraper.ScrapeSubfields(ctx)
	} else {
		report, err = scraper.ScrapeFields(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d queries, %d failed, %d fetched, %d stored\n",
		report.Kind, report.Queries, report.Failed, report.Fetched, report.Total)
	return nil
}

// =============================================================================
// seed
// =============================================================================

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the taxonomy file and default model parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		taxonomy, err := config.LoadTaxonomy(cfg.TaxonomyPath)
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := database.SeedTaxonomy(db, taxonomy, logger); err != nil {
			return err
		}
		return database.SeedModelParameters(db, cfg.AI, logger)
	},
}
