package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/handlers"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/bot/state"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/config"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/services"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/vitalz"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	logger.Info("Starting Vitalz dashboard", "vitalz_base_url", cfg.Vitalz.BaseURL, "tz", cfg.Location.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to open database", "driver", cfg.DB.Driver, "error", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}()
	logger.Info("Database ready", "driver", cfg.DB.Driver)

	stateManager := newStateManager(cfg.Redis)
	if closer, ok := stateManager.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	client := vitalz.NewClient(cfg.Vitalz.BaseURL, vitalz.WithTimeout(cfg.Vitalz.Timeout))
	dashboardService := dashboard.NewService(dashboard.NewLoader(client, cfg.Vitalz.JoinTimeout))

	insightService, err := services.NewInsightService(ctx, cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		logger.Warn("AI insights disabled", "error", err)
	}
	defer func() {
		if err := insightService.Close(); err != nil {
			logger.Warn("Failed to close insight clients", "error", err)
		}
	}()

	defaultDate := func() time.Time {
		return cfg.Vitalz.DefaultStatisticsDate(time.Now(), cfg.Location)
	}

	deps := handlers.Dependencies{
		OperatorSvc:  services.NewOperatorService(db),
		DashboardSvc: dashboardService,
		InsightSvc:   insightService,
		Location:     cfg.Location,
		DefaultDate:  defaultDate,
	}

	telegramBot, err := bot.NewBot(cfg.TelegramToken, deps, stateManager)
	if err != nil {
		logger.Fatal("Failed to create bot", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer telegramBot.Stop()
		return telegramBot.Start(gctx)
	})
	if cfg.HTTP.Enabled() {
		server := web.NewServer(cfg.HTTP, dashboardService, cfg.Location, defaultDate)
		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	logger.Info("Bot is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Stopped")
}

func newStateManager(cfg config.RedisConfig) state.StateManager {
	if !cfg.Enabled() {
		logger.Info("Using in-memory chat state")
		return state.NewManager()
	}

	manager, err := state.NewRedisManager(cfg.Host, cfg.Port)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory chat state", "host", cfg.Host, "error", err)
		return state.NewManager()
	}
	logger.Info("Using Redis chat state", "host", cfg.Host, "port", cfg.Port)
	return manager
}
