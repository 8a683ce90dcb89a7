package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mmrhub/internal/config"
	"mmrhub/internal/jobs"
	"mmrhub/internal/model"
	"mmrhub/internal/parser"
	"mmrhub/internal/server"
	"mmrhub/internal/store"
	"mmrhub/internal/validator"
)

var (
	port      = flag.Int("port", 0, "HTTP port (overrides config.toml)")
	devMode   = flag.Bool("dev", false, "development mode")
	dataDir   = flag.String("dataDir", "", "data directory (overrides config.toml)")
	redisAddr = flag.String("redisAddr", "", "redis address (overrides config.toml; empty uses in-memory backend)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *redisAddr != "" {
		cfg.Redis.Addr = *redisAddr
	}

	log := newLogger(cfg.Server.DevMode)

	resolvedDataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}
	uploadsDir := filepath.Join(resolvedDataDir, "uploads")

	archive, err := store.New(filepath.Join(resolvedDataDir, "mmrhub.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open report archive")
	}
	defer archive.Close()

	retention := time.Duration(cfg.Jobs.RetentionSeconds) * time.Second
	queue, tracker := newBackends(cfg, retention, log)
	defer queue.Close()

	pipeline, err := parser.New(parser.Options{
		Adapter: parser.AdapterOptions{
			MaxSearchRows:       cfg.Parser.MaxSearchRows,
			MaxSearchCols:       cfg.Parser.MaxSearchCols,
			MaxColOffset:        cfg.Parser.MaxColOffset,
			MaxRowOffset:        cfg.Parser.MaxRowOffset,
			SimilarityThreshold: cfg.Parser.SimilarityThreshold,
		},
		Weights: parser.Weights{
			HeaderMatch:    cfg.Confidence.HeaderMatch,
			DataComplete:   cfg.Confidence.DataComplete,
			ValidationPass: cfg.Confidence.ValidationPass,
		},
		ExtraPatterns:  sheetPatterns(cfg.Parser.SheetPatterns),
		ProjectAliases: cfg.Parser.ProjectAliases,
		Tolerances: validator.Tolerances{
			ProgressGapPoints:   cfg.Validation.ProgressGapPoints,
			MilestoneDelay:      time.Duration(cfg.Validation.MilestoneDelayDays) * 24 * time.Hour,
			OverrunRatio:        cfg.Validation.OverrunRatio,
			VarianceEpsilon:     cfg.Validation.VarianceEpsilon,
			ActivityProgressGap: cfg.Validation.ActivityProgressGap,
			ReconcileTolerance:  cfg.Validation.ReconcileTolerance,
		},
		Logger: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build parse pipeline")
	}

	limits := jobs.Limits{
		MaxFileSize:  cfg.Jobs.MaxFileSizeMB << 20,
		AllowedExts:  []string{".xlsx", ".xls"},
		MaxBatchSize: cfg.Jobs.BatchLimit,
		MaxRetries:   cfg.Jobs.MaxRetries,
	}
	svc := jobs.NewService(tracker, queue, limits, log)

	pool := jobs.NewPool(queue, tracker, pipeline, archive, jobs.PoolOptions{
		Concurrency: cfg.Jobs.Concurrency,
		Timeout:     time.Duration(cfg.Jobs.JobTimeoutSeconds) * time.Second,
		Logger:      log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := pool.Run(ctx); err != nil {
			log.Error().Err(err).Msg("worker pool stopped")
		}
	}()

	srv := server.New(cfg, svc, archive, uploadsDir, log)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.Run(); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")
	cancel()
	queue.Close()
}

// newBackends wires the Redis queue and tracker when an address is
// configured and reachable, falling back to the in-memory pair.
func newBackends(cfg *config.AppConfig, retention time.Duration, log zerolog.Logger) (jobs.Queue, jobs.Tracker) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("using in-memory job backend")
		return jobs.NewMemoryQueue(), jobs.NewMemoryTracker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Err(err).Msg("redis unreachable, using in-memory job backend")
		return jobs.NewMemoryQueue(), jobs.NewMemoryTracker()
	}

	log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis job backend")
	return jobs.NewRedisQueue(client, retention), jobs.NewRedisTracker(client, retention)
}

// sheetPatterns converts the config's string-keyed pattern map onto the
// annexure type keys the classifier expects.
func sheetPatterns(raw map[string][]string) map[model.AnnexureType][]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[model.AnnexureType][]string, len(raw))
	for k, v := range raw {
		out[model.AnnexureType(k)] = v
	}
	return out
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}
