// Package autopost は自動投稿ワーカーを提供する。
// 投稿期限のサイトを判定し、トピック選択、記事生成、公開、
// 最終投稿日の記録までを1サイクルとして実行する。
package autopost

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"

	"github.com/hitoshi/postflow/internal/metrics"
	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/repository"
	"github.com/hitoshi/postflow/internal/schedule"
)

// TopicSource は次の記事トピック決定のインターフェース。テスト時にモックに差し替え可能。
type TopicSource interface {
	NextTopic(ctx context.Context, site *model.Site) (string, error)
}

// ContentGenerator は記事生成のインターフェース。テスト時にモックに差し替え可能。
type ContentGenerator interface {
	Generate(ctx context.Context, site *model.Site, topic string) (*model.GeneratedArticle, error)
}

// Publisher は記事公開のインターフェース。テスト時にモックに差し替え可能。
type Publisher interface {
	Publish(ctx context.Context, site *model.Site, article *model.GeneratedArticle) (string, error)
}

// RunnerConfig は自動投稿ワーカーの設定パラメータ。
type RunnerConfig struct {
	// DryRun がtrueの場合、記事生成までは行うが公開と最終投稿日の記録は行わない。
	DryRun bool
	// GenerateTimeout は記事生成1回あたりのタイムアウト（デフォルト: 120秒）。
	GenerateTimeout time.Duration
	// PublishTimeout は公開1回あたりのタイムアウト（デフォルト: 30秒）。
	PublishTimeout time.Duration
	// RetryAttempts はトピック選択のリトライ回数（デフォルト: 3）。
	RetryAttempts uint
	// RetryDelay はリトライの初期待機時間（デフォルト: 2秒）。
	RetryDelay time.Duration
}

// Runner は自動投稿サイクルを実行する。
type Runner struct {
	siteRepo  repository.SiteRepository
	planRepo  repository.PlanRepository
	topics    TopicSource
	generator ContentGenerator
	publisher Publisher
	metrics   metrics.MetricsCollector // nil可
	logger    *slog.Logger
	config    RunnerConfig
	now       func() time.Time // テスト用に差し替え可能
}

// NewRunner はRunner の新しいインスタンスを生成する。
func NewRunner(
	siteRepo repository.SiteRepository,
	planRepo repository.PlanRepository,
	topics TopicSource,
	generator ContentGenerator,
	publisher Publisher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config RunnerConfig,
) *Runner {
	if config.GenerateTimeout <= 0 {
		config.GenerateTimeout = 120 * time.Second
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 30 * time.Second
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}
	return &Runner{
		siteRepo:  siteRepo,
		planRepo:  planRepo,
		topics:    topics,
		generator: generator,
		publisher: publisher,
		metrics:   collector,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// RunOnce は自動投稿サイクルを1回実行する。
// 自動投稿対象の全サイトを期限判定し、期限到来のサイトを順に処理する。
// サイト単位の失敗は集計に記録し、他のサイトの処理を継続する。
func (r *Runner) RunOnce(ctx context.Context) (*model.RunStats, error) {
	start := time.Now()
	stats := &model.RunStats{}

	sites, err := r.siteRepo.List(ctx, true)
	if err != nil {
		return stats, fmt.Errorf("自動投稿対象サイトの取得に失敗しました: %w", err)
	}

	now := r.now()
	for _, site := range sites {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		stats.Checked++
		if r.metrics != nil {
			r.metrics.RecordSiteChecked()
		}

		if !schedule.IsDueToday(site, now) {
			continue
		}

		if err := r.processSite(ctx, site, stats); err != nil {
			stats.AddFailure(site.Name, err)
			if r.metrics != nil {
				r.metrics.RecordSiteFailed(site.Name, err.Error())
			}
			r.logger.Error("サイトの自動投稿に失敗しました",
				slog.String("site_id", site.ID),
				slog.String("site_name", site.Name),
				slog.String("error", err.Error()),
			)
			continue
		}

		stats.Processed++
		if r.metrics != nil {
			r.metrics.RecordSiteProcessed()
		}
	}

	r.logger.Info("自動投稿サイクルが完了しました",
		slog.Int("checked", stats.Checked),
		slog.Int("processed", stats.Processed),
		slog.Int("failed", stats.Failed),
		slog.Int("generated", stats.Generated),
		slog.Int("published", stats.Published),
		slog.Int("pending", stats.Pending),
		slog.Bool("dry_run", r.config.DryRun),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return stats, nil
}

// RunSite は指定サイトのみを処理する。手動実行用。
// forceがtrueの場合は投稿期限の判定をスキップして必ず処理する。
func (r *Runner) RunSite(ctx context.Context, siteID string, force bool) (*model.RunStats, error) {
	stats := &model.RunStats{}

	site, err := r.siteRepo.FindByID(ctx, siteID)
	if err != nil {
		return stats, fmt.Errorf("サイトの取得に失敗しました: %w", err)
	}
	if site == nil {
		return stats, model.NewSiteNotFoundError(siteID)
	}

	stats.Checked = 1
	if r.metrics != nil {
		r.metrics.RecordSiteChecked()
	}

	if !site.Automatable() {
		return stats, fmt.Errorf("サイトに自動投稿が設定されていません: %s", site.Name)
	}

	if !force && !schedule.IsDueToday(site, r.now()) {
		r.logger.Info("投稿期限ではないためスキップします",
			slog.String("site_id", site.ID),
			slog.String("site_name", site.Name),
		)
		return stats, nil
	}

	if err := r.processSite(ctx, site, stats); err != nil {
		stats.AddFailure(site.Name, err)
		if r.metrics != nil {
			r.metrics.RecordSiteFailed(site.Name, err.Error())
		}
		return stats, err
	}

	stats.Processed = 1
	if r.metrics != nil {
		r.metrics.RecordSiteProcessed()
	}
	return stats, nil
}

// processSite は1サイト分の投稿処理を実行する。
// プランのget-or-create、記事生成、公開または承認待ち登録、最終投稿日の記録の順。
func (r *Runner) processSite(ctx context.Context, site *model.Site, stats *model.RunStats) error {
	now := r.now()
	today := schedule.DateOnly(now)

	// プランの取得または作成（(site_id, 暦日)につき1件の冪等な処理）
	plan, err := r.planRepo.FindBySiteAndDate(ctx, site.ID, today)
	if err != nil {
		return fmt.Errorf("プランの検索に失敗しました: %w", err)
	}

	if plan == nil {
		topic, err := r.nextTopicWithRetry(ctx, site)
		if err != nil {
			return fmt.Errorf("トピックの選択に失敗しました: %w", err)
		}

		plan = &model.ContentPlan{
			ID:            uuid.NewString(),
			SiteID:        site.ID,
			Topic:         topic,
			WordCount:     site.WordCount,
			ScheduledDate: today,
			Status:        model.PlanStatusScheduled,
		}
		if err := r.planRepo.Create(ctx, plan); err != nil {
			return fmt.Errorf("プランの作成に失敗しました: %w", err)
		}
		r.logger.Info("コンテンツプランを作成しました",
			slog.String("site_id", site.ID),
			slog.String("plan_id", plan.ID),
			slog.String("topic", topic),
		)
	} else {
		switch {
		case plan.Status == model.PlanStatusPublished:
			// 公開済みプランが残っているのは最終投稿日の記録漏れ。記録のみ回復する。
			if !r.config.DryRun {
				if err := r.siteRepo.UpdateLastPostDate(ctx, site.ID, today); err != nil {
					return fmt.Errorf("最終投稿日の更新に失敗しました: %w", err)
				}
			}
			return nil
		case plan.Terminal():
			// failed は手動で却下された終端状態。ワーカーは再処理しない。
			r.logger.Info("本日のプランは終端状態のため処理しません",
				slog.String("site_id", site.ID),
				slog.String("plan_id", plan.ID),
				slog.String("status", string(plan.Status)),
			)
			return nil
		case plan.Status == model.PlanStatusPendingApproval:
			r.logger.Info("本日のプランは承認待ちです",
				slog.String("site_id", site.ID),
				slog.String("plan_id", plan.ID),
			)
			return nil
		}
		// scheduled は同日中の再試行として処理を継続する
		r.logger.Info("既存のプランで処理を再開します",
			slog.String("site_id", site.ID),
			slog.String("plan_id", plan.ID),
			slog.String("status", string(plan.Status)),
		)
	}

	// 記事生成（前回の公開失敗で生成済みコンテンツが残っている場合は再利用する）
	var article *model.GeneratedArticle
	if plan.Content == "" {
		genCtx, cancel := context.WithTimeout(ctx, r.config.GenerateTimeout)
		genStart := time.Now()
		article, err = r.generator.Generate(genCtx, site, plan.Topic)
		cancel()
		if r.metrics != nil {
			r.metrics.RecordGenerateLatency(time.Since(genStart))
		}
		if err != nil {
			// プランはscheduledのまま残し、次のサイクルで最初から再試行する
			return fmt.Errorf("記事生成に失敗しました: %w", err)
		}

		stats.Generated++
		if r.metrics != nil {
			r.metrics.RecordArticleGenerated()
		}
		plan.Title = article.Title
		plan.Content = article.HTML
		plan.ImageCount = article.ImageCount
		plan.InternalLinks = article.InternalLinks
		plan.AffiliateCount = article.AffiliateCount

		// 生成結果をscheduledのまま保存しておく。
		// 後続の公開が失敗しても再試行時に再生成せずに済む。
		if !r.config.DryRun {
			if err := r.planRepo.UpdateStatus(ctx, plan); err != nil {
				r.logger.Warn("生成結果の保存に失敗しました",
					slog.String("plan_id", plan.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	} else {
		article = &model.GeneratedArticle{Title: plan.Title, HTML: plan.Content}
		r.logger.Info("生成済みコンテンツを再利用します",
			slog.String("plan_id", plan.ID),
		)
	}

	// ドライラン: 公開も最終投稿日の記録も行わない
	if r.config.DryRun {
		r.logger.Info("ドライランのため公開をスキップします",
			slog.String("site_id", site.ID),
			slog.String("plan_id", plan.ID),
			slog.String("title", article.Title),
			slog.Bool("auto_publish", site.AutoPublish),
		)
		return nil
	}

	// 公開または承認待ち登録
	if site.AutoPublish {
		pubCtx, cancel := context.WithTimeout(ctx, r.config.PublishTimeout)
		postID, err := r.publisher.Publish(pubCtx, site, article)
		cancel()
		if err != nil {
			// プランは生成済みコンテンツごとscheduledのまま残し、
			// 次のサイクルで公開のみを再試行する
			return fmt.Errorf("記事の公開に失敗しました: %w", err)
		}

		plan.Status = model.PlanStatusPublished
		plan.ExternalPostID = postID
		if err := r.planRepo.UpdateStatus(ctx, plan); err != nil {
			return fmt.Errorf("プランの更新に失敗しました: %w", err)
		}
		stats.Published++
		if r.metrics != nil {
			r.metrics.RecordPostPublished()
		}
	} else {
		plan.Status = model.PlanStatusPendingApproval
		if err := r.planRepo.UpdateStatus(ctx, plan); err != nil {
			return fmt.Errorf("プランの更新に失敗しました: %w", err)
		}
		stats.Pending++
		if r.metrics != nil {
			r.metrics.RecordPlanPending()
		}
		r.logger.Info("記事を承認待ちとして保存しました",
			slog.String("site_id", site.ID),
			slog.String("plan_id", plan.ID),
			slog.String("title", article.Title),
		)
	}

	// 配信が成功した場合のみ最終投稿日を記録する
	if err := r.siteRepo.UpdateLastPostDate(ctx, site.ID, today); err != nil {
		return fmt.Errorf("最終投稿日の更新に失敗しました: %w", err)
	}

	return nil
}

// nextTopicWithRetry はトピック選択を一時的な失敗に備えてリトライ付きで実行する。
func (r *Runner) nextTopicWithRetry(ctx context.Context, site *model.Site) (string, error) {
	var topic string
	err := retry.Do(
		func() error {
			var err error
			topic, err = r.topics.NextTopic(ctx, site)
			return err
		},
		retry.Attempts(r.config.RetryAttempts),
		retry.Delay(r.config.RetryDelay),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("トピック選択をリトライします",
				slog.String("site_id", site.ID),
				slog.Uint64("attempt", uint64(n)),
				slog.String("error", err.Error()),
			)
		}),
	)
	return topic, err
}
