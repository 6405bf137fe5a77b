// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// LLM
	AnthropicAPIKey  string
	WriterModel      string
	WriterMaxTokens  int
	PlannerModel     string
	PlannerMaxTokens int
	PromptsFile      string // プロンプト設定YAMLのパス（空の場合は組み込みデフォルト）

	// Image search
	PixabayAPIKey string // 未設定の場合は画像エンリッチメントを無効化

	// Daemon
	RunInterval      time.Duration // workerモードの実行間隔
	ResearchInterval time.Duration // キーワードリサーチバッチの実行間隔
	DryRun           bool

	// Outbound HTTP
	GenerateTimeout time.Duration
	PublishTimeout  time.Duration
	FetchTimeout    time.Duration
	FetchMaxSize    int64

	// Rate Limit
	RateLimitPerMinute int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	if cfg.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.WriterModel = getEnvString("WRITER_MODEL", "claude-sonnet-4-5")
	cfg.WriterMaxTokens = getEnvInt("WRITER_MAX_TOKENS", 8192)
	cfg.PlannerModel = getEnvString("PLANNER_MODEL", "claude-haiku-4-5")
	cfg.PlannerMaxTokens = getEnvInt("PLANNER_MAX_TOKENS", 1024)
	cfg.PromptsFile = getEnvString("PROMPTS_FILE", "")
	cfg.PixabayAPIKey = getEnvString("PIXABAY_API_KEY", "")
	cfg.RunInterval = getEnvDuration("RUN_INTERVAL", time.Hour)
	cfg.ResearchInterval = getEnvDuration("RESEARCH_INTERVAL", 24*time.Hour)
	cfg.DryRun = getEnvBool("DRY_RUN", false)
	cfg.GenerateTimeout = getEnvDuration("GENERATE_TIMEOUT", 120*time.Second)
	cfg.PublishTimeout = getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
