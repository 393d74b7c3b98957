package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/config"
	"github.com/haithamlamki/sssppprt-sub000/db"
	"github.com/haithamlamki/sssppprt-sub000/handlers"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
	"github.com/haithamlamki/sssppprt-sub000/routes"
	"github.com/haithamlamki/sssppprt-sub000/services"
	"github.com/haithamlamki/sssppprt-sub000/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("snapshots_enabled", cfg.SnapshotsEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()

	if err := db.Migrate(dbConn, logger); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var snapshots services.SnapshotPublisher
	if cfg.SnapshotsEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("init fixture snapshot storage: %w", err)
		}
		snapshots = services.NewSnapshotPublisher(uploader, logger)
		logger.Info("fixture snapshots enabled", slog.String("bucket", cfg.R2.BucketName))
	}

	hub := brackets.NewHub(logger)
	go hub.Run(ctx)

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	tx := repositories.NewPostgresTransactor(dbConn, logger)

	tournamentService := services.NewTournamentService(tournamentRepo, teamRepo, matchRepo, tx, hub, snapshots, logger)
	teamService := services.NewTeamService(tournamentRepo, teamRepo, logger)
	groupService := services.NewGroupService(tournamentRepo, teamRepo, matchRepo, tx, hub, snapshots, nil, logger)
	bracketService := services.NewBracketService(tournamentRepo, teamRepo, matchRepo, tx, hub, snapshots, logger)
	matchService := services.NewMatchService(tournamentRepo, teamRepo, matchRepo, tx, hub, logger)
	standingsService := services.NewStandingsService(tournamentRepo, teamRepo, matchRepo, tx, hub, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Tournament: handlers.NewTournamentHandler(tournamentService, standingsService),
		Team:       handlers.NewTeamHandler(teamService),
		Match:      handlers.NewMatchHandler(matchService),
		Group:      handlers.NewGroupHandler(groupService),
		Bracket:    handlers.NewBracketHandler(bracketService),
		WebSocket:  handlers.NewWebSocketHandler(hub, tournamentService, cfg.AllowedOrigins, logger),
	}, routes.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	return nil
}
