package autopost

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

func TestScheduler_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var listCalls atomic.Int32
	siteRepo := &mockSiteRepo{
		listFunc: func(ctx context.Context, onlyAutomatable bool) ([]*model.Site, error) {
			listCalls.Add(1)
			return nil, nil
		},
	}

	runner := newTestRunner(runnerDeps{siteRepo: siteRepo}, RunnerConfig{})
	scheduler := NewScheduler(runner, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回目の実行を待つ
	deadline := time.After(2 * time.Second)
	for listCalls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("起動直後にサイクルが実行されるべき")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("コンテキストのキャンセルで停止すべき")
	}
}
