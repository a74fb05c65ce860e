package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"immo-harvester/config"
	"immo-harvester/models"
	"immo-harvester/scraper/immovlan"
	"immo-harvester/services"
	"immo-harvester/storage"
	"immo-harvester/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithOptions(os.Stdout, cfg.LogLevel, cfg.LogColor)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("Invalid catalog: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, catalog, logger); err != nil {
		logger.Error("Harvest failed: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, catalog *config.Catalog, logger *utils.Logger) error {
	runID := uuid.NewString()
	logger = logger.With("run", runID)

	logger.Info("=== immovlan harvester starting (phase: %s, backend: %s) ===", cfg.RunPhase, cfg.FetchBackend)
	logger.Info("Config: regions: %d | brackets: %d | workers: %d/%d | max pages: %d | timeout: %s",
		len(catalog.Regions), len(catalog.PriceBrackets), cfg.DiscoveryWorkers, cfg.ExtractionWorkers,
		cfg.MaxPages, cfg.RequestTimeout)

	cleaner := services.NewCleaner(logger, catalog)

	var (
		urls      []string
		discovery models.DiscoveryStats
	)

	if cfg.RunPhase == config.PhaseExtract {
		loaded, err := storage.LoadURLs(cfg.URLsOutputPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded %d URLs from %s", len(loaded), cfg.URLsOutputPath)
		urls = loaded
	} else {
		pool, err := newSessionPool(ctx, cfg, catalog, cfg.DiscoveryWorkers, logger)
		if err != nil {
			return err
		}
		res := immovlan.New(cfg, catalog, logger, pool, nil).DiscoverAll(ctx, immovlan.Partition(catalog))
		pool.Close()

		for _, a := range res.Abandoned {
			logger.Warn("[discovery] %s abandoned after %d pages (%s): %v", a.Query.Key(), a.Pages, a.Outcome, a.Err)
		}
		if err := storage.WriteURLs(cfg.URLsOutputPath, res.URLs); err != nil {
			return err
		}
		logger.Info("Saved %d URLs to %s", len(res.URLs), cfg.URLsOutputPath)

		if cfg.RunPhase == config.PhaseDiscover {
			return nil
		}
		urls, discovery = res.URLs, res.Stats
	}

	urls = cleaner.CleanURLs(urls)

	pool, err := newSessionPool(ctx, cfg, catalog, cfg.ExtractionWorkers, logger)
	if err != nil {
		return err
	}
	extracted := immovlan.New(cfg, catalog, logger, nil, pool).ExtractAll(ctx, urls)
	pool.Close()

	records, err := persist(ctx, cfg, runID, extracted.Records, logger)
	if err != nil {
		return err
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(records, discovery, extracted.Stats)
	insightSvc.Print(report)

	fmt.Printf("  Done. Records → %s | URLs → %s\n\n", cfg.CSVOutputPath, cfg.URLsOutputPath)
	return nil
}

// persist writes records to the CSV file and, when enabled, to PostgreSQL in
// parallel. It returns the records the report should be built from: the
// rows read back from PostgreSQL when available, otherwise the input.
func persist(ctx context.Context, cfg *config.Config, runID string, records []*models.ListingRecord, logger *utils.Logger) ([]*models.ListingRecord, error) {
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath, cfg.NullMarker)
	if err != nil {
		return nil, err
	}
	defer csvWriter.Close()

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(ctx, cfg.DSN(), runID, logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL, continuing with CSV only: %v", err)
		} else {
			defer pgWriter.Close()
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := csvWriter.Write(records); err != nil {
			return err
		}
		logger.Info("%d records saved to %s", csvWriter.Rows(), cfg.CSVOutputPath)
		return nil
	})
	if pgWriter != nil {
		g.Go(func() error {
			if err := pgWriter.Write(records); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
				return nil
			}
			logger.Info("Records stored in PostgreSQL (table: listings)")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if pgWriter == nil {
		return records, nil
	}
	stored, err := pgWriter.FetchRun(runID)
	if err != nil {
		logger.Error("Failed to fetch records from DB for insights: %v", err)
		return records, nil
	}
	if len(stored) < len(records) {
		logger.Info("%d of %d URLs were already stored by earlier runs", len(records)-len(stored), len(records))
		return records, nil
	}
	return stored, nil
}

func newSessionPool(ctx context.Context, cfg *config.Config, catalog *config.Catalog, size int, logger *utils.Logger) (*immovlan.SessionPool, error) {
	if cfg.FetchBackend == config.BackendBrowser {
		return immovlan.NewBrowserSessionPool(ctx, size, cfg.RequestTimeout, catalog.Headers, cfg.ChromeBin, logger)
	}
	return immovlan.NewHTTPSessionPool(size, cfg.RequestTimeout, catalog.Headers, cfg.MaxRPS)
}
