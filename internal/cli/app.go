package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ppiankov/verifact/internal/alert"
	"github.com/ppiankov/verifact/internal/cache"
	"github.com/ppiankov/verifact/internal/cluster"
	"github.com/ppiankov/verifact/internal/detect"
	"github.com/ppiankov/verifact/internal/evidence"
	"github.com/ppiankov/verifact/internal/index"
	"github.com/ppiankov/verifact/internal/llm"
	"github.com/ppiankov/verifact/internal/metrics"
	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/pipeline"
	"github.com/ppiankov/verifact/internal/store"
	"github.com/ppiankov/verifact/internal/trendboard"
	"github.com/ppiankov/verifact/internal/util"
	"github.com/ppiankov/verifact/internal/verdict"
	"github.com/ppiankov/verifact/internal/worker"
)

// app is the wired process: configuration, stores and the pipeline over them
type app struct {
	cfg      model.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	store    *store.Store
	index    *index.Service // nil unless the command needs similarity search
	board    *trendboard.Board
	cache    *cache.LayeredCache // nil when caching is disabled
	pipeline *pipeline.Pipeline
	closers  []func() error
}

// openApp loads configuration and wires every component. Missing provider
// configuration degrades the affected component instead of failing. The badger
// index takes an exclusive directory lock, so it is only opened when
// withIndex is set.
func openApp(withIndex bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	httpClient := util.NewHTTPClient(seconds(cfg.HTTP.Timeout), cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	limiter := worker.NewLimiter(cfg.Evidence.RatePerSecond, cfg.Evidence.Burst)

	var respCache cache.Cache
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	if cfg.Cache.Enabled {
		a.cache = cache.NewLayeredCache(ttl, cfg.Cache.Dir, ttl)
		a.cache.Observe(m.CacheLookup)
		respCache = a.cache
	}

	provider := newProvider(cfg, logger)
	embedder := newEmbedder(cfg, respCache, ttl, logger)

	a.store, err = store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	if withIndex {
		a.index, err = index.Open(index.Config{
			Path:      cfg.Index.Path,
			Dimension: cfg.Embedding.Dimension,
			Embedder:  embedder,
			Metrics:   m,
			Logger:    logger,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open index: %w", err)
		}
		a.closers = append(a.closers, a.index.Close)
	}

	sinks := alert.Multi{a.store}
	var board cluster.Board
	if cfg.Redis.Enabled {
		rdb := trendboard.NewClient(cfg.Redis)
		a.closers = append(a.closers, rdb.Close)
		a.board = trendboard.New(rdb, cfg.Redis, logger)
		sinks = append(sinks, a.board)
		board = a.board
	}

	opts := evidence.SourceOptions{
		Client:      httpClient,
		Limiter:     limiter,
		UserAgent:   cfg.HTTP.UserAgent,
		Reliability: evidence.NewReliabilityTable(&cfg.Reliability),
		Logger:      logger,
	}
	sources := []evidence.Source{
		evidence.NewFactCheckSource(cfg.Evidence.FactCheckURL, cfg.Evidence.FactCheckAPIKey, opts),
		evidence.NewNewsSource(cfg.Evidence.NewsURL, cfg.Evidence.NewsAPIKey, opts),
		evidence.NewWebSource(cfg.Evidence.WebURL, cfg.Evidence.WebEnabled, opts),
	}
	aggregator := evidence.NewAggregator(sources, evidence.AggregatorConfig{
		MaxSources:     cfg.Evidence.MaxSources,
		MaxQueries:     cfg.Evidence.MaxQueries,
		AdapterTimeout: seconds(cfg.Evidence.AdapterTimeout),
		CacheTTL:       ttl,
	}, respCache, m, logger)

	var fetcher *evidence.Fetcher
	if cfg.Evidence.EnrichExcerpts {
		robots := util.NewRobotsChecker(httpClient, cfg.HTTP.UserAgent)
		fetcher = evidence.NewFetcher(httpClient, robots, limiter, cfg.HTTP.UserAgent, cfg.HTTP.MaxBytes, logger)
	}

	engine := cluster.NewEngine(a.store, a.store, board, cluster.Config{
		MinClusterSize:    cfg.Clustering.MinClusterSize,
		TrendingThreshold: cfg.Clustering.TrendingThreshold,
		MaxClaims:         cfg.Clustering.MaxClaims,
		Dimension:         cfg.Embedding.Dimension,
		Budget:            seconds(cfg.Clustering.BudgetSeconds),
		Stopwords:         cfg.Clustering.Stopwords,
	}, m, logger)

	a.pipeline = pipeline.New(pipeline.Deps{
		Store:    a.store,
		Index:    a.index,
		Detector: detect.New(provider, logger),
		Evidence: aggregator,
		Fetcher:  fetcher,
		Verdicts: verdict.New(provider, logger),
		Alerts:   alert.NewRaiser(sinks, cfg.Alerts, m, logger),
		Clusters: engine,
		Metrics:  m,
		Logger:   logger,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close", "error", err)
		}
	}
	a.closers = nil
}

func newProvider(cfg model.Config, logger *slog.Logger) llm.Provider {
	if cfg.LLM.Provider == "" {
		logger.Warn("no LLM provider configured; claim detection and fact checking are disabled")
		return nil
	}
	p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP, logger))
	if err != nil {
		logger.Warn("LLM provider unavailable", "provider", cfg.LLM.Provider, "error", err)
		return nil
	}
	return p
}

func newEmbedder(cfg model.Config, c cache.Cache, ttl time.Duration, logger *slog.Logger) llm.Embedder {
	if cfg.Embedding.Provider == "" {
		logger.Warn("no embedding provider configured; claims are indexed with zero vectors")
		return nil
	}
	e, err := llm.NewEmbedder(llm.EmbedderConfigFromModel(cfg.Embedding, cfg.HTTP, logger))
	if err != nil || e == nil {
		logger.Warn("embedding provider unavailable", "provider", cfg.Embedding.Provider, "error", err)
		return nil
	}
	if c == nil {
		return e
	}
	return llm.NewCachedEmbedder(e, c, ttl)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// withApp opens the app without the similarity index for the duration of fn.
// The context is cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, a *app) error) error {
	return runApp(false, fn)
}

// withIndexedApp is withApp for commands that embed or search claims
func withIndexedApp(fn func(ctx context.Context, a *app) error) error {
	return runApp(true, fn)
}

func runApp(withIndex bool, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(withIndex)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, a)
}

// printJSON writes v to stdout as indented JSON
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
