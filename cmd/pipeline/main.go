package main

import (
	"context"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-market-intel/internal/pipeline/collector"
	"golang-market-intel/internal/pipeline/config"
	delivery "golang-market-intel/internal/pipeline/delivery/http"
	"golang-market-intel/internal/pipeline/delivery/worker"
	"golang-market-intel/internal/pipeline/queue"
	"golang-market-intel/internal/pipeline/repository"
	"golang-market-intel/internal/pipeline/service"
	"golang-market-intel/pkg/logger"
	"golang-market-intel/pkg/postgres"
	"golang-market-intel/pkg/ratelimit"
	"golang-market-intel/pkg/redis"
	"golang-market-intel/pkg/telegram"

	"google.golang.org/genai"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the market intelligence pipeline",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Market Intelligence Pipeline", zap.String("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	rawPostRepo := repository.NewRawPostRepository(db.DB)
	filteredPostRepo := repository.NewFilteredPostRepository(db.DB)
	entityRepo := repository.NewMarketEntityRepository(db.DB)
	scoreRepo := repository.NewSentimentScoreRepository(db.DB)
	signalRepo := repository.NewSignalRepository(db.DB)
	correlationRepo := repository.NewStaticCorrelationRepository(cfg.Correlations)

	// Initialize AI provider
	var intelRepo repository.IntelligenceRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
		}
		repo, err := repository.NewGeminiIntelligenceRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini intelligence repository", zap.Error(err))
		}
		intelRepo = repo
	default:
		appLogger.Fatal("Invalid AI provider specified in config", zap.String("provider", cfg.AI.Provider))
	}

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
	}

	// Initialize queue and services
	postQueue := queue.NewRedisQueue(redisClient.Client, appLogger)
	gatekeeperSvc := service.NewGatekeeperService(cfg, postQueue, intelRepo, rawPostRepo, appLogger)
	brainSvc := service.NewBrainService(cfg, intelRepo, filteredPostRepo, entityRepo, scoreRepo, signalRepo, correlationRepo, telegramNotifier, appLogger)

	// Initialize orchestrator
	orchestrator := worker.NewOrchestrator(cfg, appLogger)

	rssRunner := collector.NewRunner(
		collector.NewRSSCollector(cfg.Collectors.RSS.Feeds, cfg.Collectors.RSS.BlacklistedDomains, appLogger),
		postQueue,
		appLogger,
		collector.RunnerConfig{
			Interval:      cfg.Collectors.Interval,
			SeenTTL:       cfg.Collectors.SeenTTL,
			ScrapeTimeout: cfg.Collectors.Timeout,
			Limiter:       ratelimit.NewSlidingWindowLimiter(cfg.Collectors.RateLimit.MaxCalls, cfg.Collectors.RateLimit.Period),
		},
	)
	if len(cfg.Collectors.RSS.Feeds) == 0 {
		rssRunner.MarkDormant("no feeds configured")
	}
	orchestrator.RegisterCollector(ctx, rssRunner)

	orchestrator.RegisterLoopHandler(ctx, gatekeeperSvc.ProcessBatch, "gatekeeper", cfg.Gatekeeper.Timeout, cfg.Gatekeeper.IdleDelay)
	orchestrator.RegisterLoopHandler(ctx, brainSvc.ProcessPosts, "brain", cfg.Brain.Timeout, cfg.Brain.IdleDelay)
	if err := orchestrator.RegisterCronHandler(ctx, brainSvc.RunSynthesis, "synthesis", cfg.Brain.SynthesisCron, cfg.Brain.SynthesisTimeout); err != nil {
		appLogger.Fatal("Invalid synthesis cron expression", zap.Error(err))
	}
	orchestrator.Start()

	// Initialize Echo server for the ops surface
	e := echo.New()
	e.HideBanner = true
	opsHandler := delivery.NewOpsHandler(postQueue, gatekeeperSvc, brainSvc, rawPostRepo, orchestrator.Runners, appLogger)
	opsHandler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != nethttp.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
		}
	}()

	appLogger.Info("Pipeline started. Collecting and analyzing posts...")

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down pipeline...")
	cancel()
	orchestrator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server forced to shutdown", logger.ErrorField(err))
	}
	appLogger.Info("Pipeline stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "pipeline"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing pipeline CLI: %s\n", err)
		os.Exit(1)
	}
}
