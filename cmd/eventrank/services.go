package main

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/cache"
	"github.com/hpungsan/eventrank/internal/classify"
	"github.com/hpungsan/eventrank/internal/config"
	"github.com/hpungsan/eventrank/internal/feed"
	"github.com/hpungsan/eventrank/internal/majors"
	"github.com/hpungsan/eventrank/internal/metrics"
	"github.com/hpungsan/eventrank/internal/ops"
	"github.com/hpungsan/eventrank/internal/ranking"
)

// services bundles the wired dependencies shared by every command.
type services struct {
	deps     *ops.Deps
	registry *prometheus.Registry
	logger   *zap.Logger
}

// buildServices wires config into the feed, classifier, cache, and ranker.
func buildServices(database *sql.DB, cfg *config.Config, baseDir string, logger *zap.Logger, reg *prometheus.Registry) (*services, error) {
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	catalog, err := majors.Load(cfg.MajorsFile)
	if err != nil {
		return nil, err
	}

	feedClient := feed.NewClient(feed.Config{
		BaseURL:          cfg.FeedURL,
		Timeout:          cfg.HTTPTimeout(),
		MaxResponseBytes: cfg.MaxResponseBytes,
		Logger:           logger.Named("feed"),
		Metrics:          m,
	})

	classifierOpts := classify.Options{
		BatchSize:  cfg.ClassifyBatchSize,
		BatchDelay: cfg.BatchDelay(),
		Logger:     logger.Named("classify"),
		Metrics:    m,
	}
	gemini := classify.NewGeminiClient(classify.GeminiConfig{
		Endpoint:         cfg.ClassifyEndpoint,
		APIKey:           cfg.ClassifyAPIKey,
		Temperature:      cfg.ClassifyTemperature,
		MaxOutputTokens:  cfg.ClassifyMaxTokens,
		Timeout:          cfg.HTTPTimeout(),
		MaxResponseBytes: cfg.MaxResponseBytes,
		Logger:           logger.Named("classify"),
	})
	if gemini.Configured() {
		classifierOpts.Model = gemini
	} else {
		logger.Info("classification API key not configured, using keyword heuristics")
	}

	store, err := cache.New(database, cache.Options{
		LRUSize: cfg.CacheLRUSize,
		Logger:  logger.Named("cache"),
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	rankerOpts := ranking.Options{
		Store:      store,
		Classifier: classify.New(classifierOpts),
		Logger:     logger.Named("ranking"),
		Metrics:    m,
	}
	if cfg.RankEndpoint != "" {
		rankerOpts.Remote = ranking.NewRemoteClient(cfg.RankEndpoint, cfg.HTTPTimeout(), cfg.MaxResponseBytes)
	}

	return &services{
		deps: &ops.Deps{
			DB:                database,
			Feed:              feedClient,
			Ranker:            ranking.NewRanker(rankerOpts),
			Cache:             store,
			Majors:            catalog,
			Logger:            logger,
			DefaultFutureDays: cfg.FutureDays,
			ExportsDir:        filepath.Join(baseDir, ops.ExportsDirName),
		},
		registry: reg,
		logger:   logger,
	}, nil
}
