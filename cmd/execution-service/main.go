package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/config"
	"golang-dividend-forecaster/internal/executor/delivery/consumer"
	"golang-dividend-forecaster/internal/executor/repository"
	"golang-dividend-forecaster/internal/executor/service"
	"golang-dividend-forecaster/internal/executor/strategy"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/metrics"
	"golang-dividend-forecaster/pkg/postgres"
	"golang-dividend-forecaster/pkg/redis"
	"golang-dividend-forecaster/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const tickerMigrationCacheTTL = 10 * time.Minute

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the execution service",
	Run:   runServe,
}

var runCmd = &cobra.Command{
	Use:       "run [DIVIDEND_SYNC|DIVIDEND_PREDICTION]",
	Short:     "Runs one dividend job immediately and prints its summary",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(entity.JobTypeDividendSync), string(entity.JobTypeDividendPrediction)},
	Run:       runOnce,
}

// app holds the wired dependencies shared by serve and run.
type app struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *postgres.DB
	redisClient *redis.Client
	executorSvc service.ExecutorService
}

func (a *app) close() {
	if sqlDB, err := a.db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.redisClient.Close()
	_ = a.logger.Sync()
}

func bootstrap() *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger.Info("Starting Execution Service", zap.String("name", cfg.App.Name))

	db, err := postgres.NewDB(cfg.Database.Postgres())
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	redisClient, err := redis.NewClient(cfg.Redis.Client())
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	jobRepo := repository.NewJobRepository(db.DB)
	historyRepo := repository.NewTaskExecutionHistoryRepository(db.DB)
	holdingsRepo := repository.NewHoldingsRepository(db.DB)
	earningsRepo := repository.NewEarningsRepository(db.DB)
	predictionRepo := repository.NewPredictionRepository(db.DB)
	tickerMigrationRepo := repository.NewTickerMigrationRepository(db.DB, tickerMigrationCacheTTL)
	missingTickerRepo := repository.NewMissingTickerRepository(db.DB)
	yahooFinanceRepo, err := repository.NewYahooFinanceRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Yahoo Finance repository", zap.Error(err))
	}

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
	}

	recorder := metrics.New(prometheus.DefaultRegisterer)

	strategies := []strategy.JobExecutionStrategy{
		strategy.NewDividendSyncStrategy(
			cfg,
			appLogger,
			holdingsRepo,
			earningsRepo,
			yahooFinanceRepo,
			tickerMigrationRepo,
			missingTickerRepo,
			redisClient,
			telegramNotifier,
			recorder,
		),
		strategy.NewDividendPredictionStrategy(
			cfg,
			appLogger,
			holdingsRepo,
			earningsRepo,
			predictionRepo,
			redisClient,
			telegramNotifier,
			recorder,
		),
	}

	executorSvc := service.NewExecutorService(redisClient.Client, jobRepo, historyRepo, appLogger, strategies)

	return &app{
		cfg:         cfg,
		logger:      appLogger,
		db:          db,
		redisClient: redisClient,
		executorSvc: executorSvc,
	}
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := bootstrap()
	defer a.close()

	if err := a.redisClient.EnsureGroup(ctx, common.RedisStreamSchedulerTaskExecution, common.RedisStreamGroup); err != nil {
		a.logger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	var metricsServer *metrics.Server
	if a.cfg.Metrics.Port > 0 {
		metricsServer = metrics.NewServer(a.cfg.Metrics.Port, a.logger)
		metricsServer.Start()
	}

	redisConsumer := consumer.NewRedisConsumer(a.cfg, a.executorSvc, a.logger)
	redisConsumer.Start(ctx)

	a.logger.Info("Execution service started. Waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("Shutting down execution service...")
	cancel()
	redisConsumer.Stop()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Failed to stop metrics server", logger.ErrorField(err))
		}
	}
	a.logger.Info("Execution service stopped.")
}

func runOnce(cmd *cobra.Command, args []string) {
	jobType := entity.JobType(strings.ToUpper(args[0]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	defer a.close()

	history, err := a.executorSvc.RunOnce(ctx, jobType)
	if err != nil {
		a.logger.Error("Failed to run job", logger.ErrorField(err), logger.StringField("job_type", string(jobType)))
		os.Exit(1)
	}

	fmt.Fprintln(cmd.OutOrStdout(), history.Output.String)
	if history.Status != entity.StatusCompleted {
		fmt.Fprintf(os.Stderr, "job %s finished with status %s: %s\n", jobType, history.Status, history.ErrorMessage.String)
		os.Exit(1)
	}
}

func main() {
	rootCmd := &cobra.Command{Use: "execution-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-executor.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing execution-service CLI: %s\n", err)
		os.Exit(1)
	}
}
