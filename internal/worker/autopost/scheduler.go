package autopost

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler は自動投稿サイクルの定期実行を行う。
// 投稿時刻の粒度は実行間隔に依存するため、間隔は1時間以下を推奨する。
type Scheduler struct {
	runner *Runner
	logger *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(runner *Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("自動投稿スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("自動投稿スケジューラを停止しました")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle は1サイクルを実行し、エラーをログに記録する。
func (s *Scheduler) runCycle(ctx context.Context) {
	if _, err := s.runner.RunOnce(ctx); err != nil {
		s.logger.Error("自動投稿サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
