package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/reviewd/internal/api/stream"
	"github.com/gosuda/reviewd/internal/config"
	"github.com/gosuda/reviewd/internal/github"
	"github.com/gosuda/reviewd/internal/llm"
	"github.com/gosuda/reviewd/internal/notify"
	"github.com/gosuda/reviewd/internal/pipeline"
	"github.com/gosuda/reviewd/internal/server"
	"github.com/gosuda/reviewd/internal/session"
	"github.com/gosuda/reviewd/internal/store/postgres"
	redisstore "github.com/gosuda/reviewd/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("REVIEWD_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("REVIEWD_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL and ensure the rules/history tables exist.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Optional Redis blob cache; a nil cache is a valid always-miss cache.
	var cache *redisstore.BlobCache
	if cfg.Redis.Addr != "" {
		cache, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return err
		}
		defer cache.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("blob cache enabled")
	}

	// Hosting-API client and file fetcher.
	ghClient := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIBaseURL, cfg.GitHub.RawBaseURL)
	fetcher := github.NewFetcher(ghClient, cache)

	// Inference client.
	reviewer := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.FileCharLimit)

	// Session registry and workflow graph.
	sessions := session.NewManager()
	graph := pipeline.New(store.History(), store.Rules(), reviewer)

	// Optional Slack completion notifications.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.Slack.BotToken != "" {
		notifier = notify.NewSlackNotifier(slacklib.New(cfg.Slack.BotToken), cfg.Slack.Channel)
		log.Info().Str("channel", cfg.Slack.Channel).Msg("Slack notifications enabled")
	}

	runner := pipeline.NewRunner(fetcher, graph, sessions, notifier)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, server.Deps{
		Store:    store,
		Sessions: sessions,
		Runner:   runner,
		Stream:   stream.NewHandler(sessions),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		errCh <- srv.Start(ctx)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
