package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"contentboard/internal/approval"
	"contentboard/internal/config"
	"contentboard/internal/db"
	"contentboard/internal/email"
	"contentboard/internal/metrics"
	"contentboard/internal/models"
	"contentboard/internal/server"
	"contentboard/internal/status"
	"contentboard/internal/workflow"
	"contentboard/pkg/logger"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log.Logger = logger.New(cfg.Env, cfg.LogLevel)

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config file")
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations completed")

	if yamlCfg != nil && len(yamlCfg.Clients) > 0 {
		if err := database.SyncClients(ctx, clientsFromConfig(yamlCfg.Clients)); err != nil {
			log.Fatal().Err(err).Msg("failed to sync clients")
		}
		log.Info().Int("clients", len(yamlCfg.Clients)).Msg("client roster synced")
	}

	registry := status.NewRegistry(yamlCfg.StatusOverrides())
	metrics.Init(database)

	notifier := email.NewNotifier(cfg)
	engine := workflow.NewEngine(database, notifier, registry,
		workflow.WithLogger(log.Logger.With().Str("component", "workflow").Logger()),
	)
	approvals := approval.NewService(database, notifier, cfg.PublicBaseURL,
		approval.WithTTL(cfg.ApprovalLinkTTL),
		approval.WithTeamEmail(cfg.TeamNotifyEmail),
		approval.WithRegistry(registry),
		approval.WithLogger(log.Logger.With().Str("component", "approval").Logger()),
	)

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, server.Deps{
		DB:        database,
		Engine:    engine,
		Approvals: approvals,
		Registry:  registry,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := srv.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func clientsFromConfig(in []config.ClientConfig) []models.Client {
	out := make([]models.Client, 0, len(in))
	for _, c := range in {
		out = append(out, models.Client{
			Slug:         c.Slug,
			Name:         c.Name,
			ContactEmail: c.ContactEmail,
			TeamEmail:    c.TeamEmail,
		})
	}
	return out
}
