package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inboxtriage/backend/internal/ai"
	"github.com/inboxtriage/backend/internal/config"
	"github.com/inboxtriage/backend/internal/db"
	httpapi "github.com/inboxtriage/backend/internal/http"
	"github.com/inboxtriage/backend/internal/mail"
	"github.com/inboxtriage/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "triage-backend").Logger()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var analyzer ai.Analyzer
	if cfg.OpenAIAPIKey == "" {
		analyzer = ai.MockAnalyzer{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock analyzer")
	} else {
		analyzer = ai.NewOpenAIAnalyzer(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})
	}

	pipeline := service.NewPipeline(store, analyzer, logger)
	aggregator := service.NewAggregator(store, logger)
	seeder := service.NewSeeder(store, pipeline, logger)

	deps := httpapi.Deps{
		Store:      store,
		Pipeline:   pipeline,
		Aggregator: aggregator,
		Seeder:     seeder,
	}

	if cfg.GmailConfigured() {
		deps.OAuth = mail.OAuthConfig(cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRedirectURI)
		if cfg.GmailRefreshToken != "" {
			mailbox, err := mail.NewGmailMailbox(ctx, deps.OAuth, cfg.GmailRefreshToken)
			if err != nil {
				logger.Error().Err(err).Msg("failed to connect gmail, sync disabled")
			} else {
				deps.Syncer = service.NewSyncer(mailbox, pipeline, logger)
			}
		}
	}

	router := httpapi.Router(cfg, deps, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
