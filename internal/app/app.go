// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/postflow/internal/config"
	"github.com/hitoshi/postflow/internal/database"
	"github.com/hitoshi/postflow/internal/handler"
	"github.com/hitoshi/postflow/internal/imagesearch"
	"github.com/hitoshi/postflow/internal/keyword"
	"github.com/hitoshi/postflow/internal/logger"
	"github.com/hitoshi/postflow/internal/metrics"
	"github.com/hitoshi/postflow/internal/middleware"
	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/pipeline"
	"github.com/hitoshi/postflow/internal/plan"
	"github.com/hitoshi/postflow/internal/publisher"
	"github.com/hitoshi/postflow/internal/repository"
	"github.com/hitoshi/postflow/internal/research"
	"github.com/hitoshi/postflow/internal/security"
	"github.com/hitoshi/postflow/internal/site"
	"github.com/hitoshi/postflow/internal/sitemap"
	"github.com/hitoshi/postflow/internal/worker/autopost"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandRun:
		return runOnce(cfg, args[1:])
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// deps はDB接続から組み立てた全依存関係を保持する。
type deps struct {
	siteRepo    *repository.PostgresSiteRepo
	planRepo    *repository.PostgresPlanRepo
	keywordRepo *repository.PostgresKeywordRepo

	fetchGuard security.FetchGuardService
	collector  *metrics.Collector
	registry   *prometheus.Registry

	wpClient *publisher.WordPressClient
	runner   *autopost.Runner
}

// buildDeps はDB接続から自動投稿パイプラインの全依存関係を組み立てる。
func buildDeps(cfg *config.Config, db *sql.DB, dryRun bool) (*deps, error) {
	siteRepo := repository.NewPostgresSiteRepo(db)
	planRepo := repository.NewPostgresPlanRepo(db)
	keywordRepo := repository.NewPostgresKeywordRepo(db)

	fetchGuard := security.NewFetchGuard()
	safeClient := fetchGuard.NewSafeClient(cfg.FetchTimeout)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	prompts, err := pipeline.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	generator := pipeline.NewGenerator(
		pipeline.NewAnthropicWriter(cfg.AnthropicAPIKey),
		imagesearch.NewClient(safeClient, slog.Default(), cfg.PixabayAPIKey),
		sitemap.NewService(safeClient, slog.Default()),
		security.NewArticleSanitizer(),
		prompts,
		pipeline.GeneratorConfig{
			PlannerModel:     cfg.PlannerModel,
			PlannerMaxTokens: cfg.PlannerMaxTokens,
			WriterModel:      cfg.WriterModel,
			WriterMaxTokens:  cfg.WriterMaxTokens,
		},
		slog.Default(),
	)

	wpClient := publisher.NewWordPressClient(
		fetchGuard.NewSafeClient(cfg.PublishTimeout),
		slog.Default(),
		collector,
	)

	topics := keyword.NewService(keywordRepo, planRepo, slog.Default())

	runner := autopost.NewRunner(
		siteRepo, planRepo, topics, generator, wpClient,
		collector, slog.Default(),
		autopost.RunnerConfig{
			DryRun:          dryRun,
			GenerateTimeout: cfg.GenerateTimeout,
			PublishTimeout:  cfg.PublishTimeout,
		},
	)

	return &deps{
		siteRepo:    siteRepo,
		planRepo:    planRepo,
		keywordRepo: keywordRepo,
		fetchGuard:  fetchGuard,
		collector:   collector,
		registry:    registry,
		wpClient:    wpClient,
		runner:      runner,
	}, nil
}

// runServe は管理APIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	d, err := buildDeps(cfg, db, cfg.DryRun)
	if err != nil {
		return err
	}

	siteService := site.NewService(d.siteRepo, d.fetchGuard, slog.Default())
	planService := plan.NewService(d.planRepo, d.siteRepo, d.wpClient, slog.Default())

	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigForPerMinute(cfg.RateLimitPerMinute),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		HealthChecker:  db,
		RateLimiter:    rateLimiter,
		Logger:         slog.Default(),
		MetricsHandler: metrics.Handler(d.registry),
		SiteService:    siteService,
		PlanService:    planService,
		Runner:         d.runner,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker は自動投稿デーモンモードで起動する。
// 自動投稿スケジューラとキーワード収集バッチを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	d, err := buildDeps(cfg, db, cfg.DryRun)
	if err != nil {
		return err
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("run_interval", cfg.RunInterval),
		slog.Duration("research_interval", cfg.ResearchInterval),
		slog.Bool("dry_run", cfg.DryRun),
	)

	// Prometheusスクレイプ用のメトリクスエンドポイント
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: metrics.SetupMetricsRoute(d.registry),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()
	defer metricsServer.Close()

	// キーワード収集バッチをバックグラウンドで起動
	researchBatch := research.NewBatchJob(
		d.siteRepo, d.keywordRepo, nil, slog.Default(),
		research.BatchConfig{
			Interval:     cfg.ResearchInterval,
			FetchTimeout: cfg.FetchTimeout,
		},
	)
	go researchBatch.Start(ctx)

	// 自動投稿スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler := autopost.NewScheduler(d.runner, slog.Default())
	scheduler.Start(ctx, cfg.RunInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runOnce は自動投稿サイクルを1回だけ実行する。
// 1サイト以上失敗した場合はエラーを返し、プロセスは非ゼロで終了する。
func runOnce(cfg *config.Config, args []string) error {
	opts, err := ParseRunFlags(args)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	d, err := buildDeps(cfg, db, opts.DryRun || cfg.DryRun)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var stats *model.RunStats
	if opts.SiteID != "" {
		stats, err = d.runner.RunSite(ctx, opts.SiteID, opts.Force)
	} else {
		stats, err = d.runner.RunOnce(ctx)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if stats.HasFailures() {
		return fmt.Errorf("run completed with %d failed site(s)", stats.Failed)
	}
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
