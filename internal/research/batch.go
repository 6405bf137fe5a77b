// Package research はリサーチフィードからのキーワード収集機能を提供する。
// サイトごとに設定されたRSS/Atomフィード（業界ニュースや検索トレンド）を
// 定期的に取得し、記事トピックの候補となるキーワードを蓄積する。
package research

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/repository"
)

const (
	// maxKeywordsPerSite は1サイトに蓄積するキーワードの上限。
	maxKeywordsPerSite = 50
	// maxKeywordLength はキーワード1件の最大文字数（rune単位）。
	maxKeywordLength = 80
	// keywordSourceFeed はリサーチフィード由来のキーワードのソース識別子。
	keywordSourceFeed = "research_feed"
)

// BatchConfig はキーワード収集バッチの設定パラメータ。
type BatchConfig struct {
	// Interval はバッチの実行間隔（デフォルト: 24時間）。
	Interval time.Duration
	// FetchTimeout はフィード1件あたりの取得タイムアウト。
	FetchTimeout time.Duration
}

// DefaultBatchConfig はデフォルトのバッチ設定を返す。
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Interval:     24 * time.Hour,
		FetchTimeout: 10 * time.Second,
	}
}

// FeedParser はフィード取得のインターフェース。テスト時にモックに差し替え可能。
type FeedParser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// BatchJob はリサーチフィードからキーワードを収集するバッチジョブ。
// research_feed_urlが設定されたサイトを対象に、フィードの各エントリの
// タイトルをキーワード候補として保存する。
type BatchJob struct {
	siteRepo    repository.SiteRepository
	keywordRepo repository.KeywordRepository
	parser      FeedParser
	logger      *slog.Logger
	config      BatchConfig
}

// NewBatchJob はBatchJobの新しいインスタンスを生成する。
// parserがnilの場合はgofeedのデフォルトパーサーを使用する。
func NewBatchJob(
	siteRepo repository.SiteRepository,
	keywordRepo repository.KeywordRepository,
	parser FeedParser,
	logger *slog.Logger,
	config BatchConfig,
) *BatchJob {
	if parser == nil {
		parser = gofeed.NewParser()
	}
	return &BatchJob{
		siteRepo:    siteRepo,
		keywordRepo: keywordRepo,
		parser:      parser,
		logger:      logger,
		config:      config,
	}
}

// Start はバッチジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (b *BatchJob) Start(ctx context.Context) {
	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()

	b.logger.Info("キーワード収集バッチジョブを開始しました",
		slog.Duration("interval", b.config.Interval),
	)

	// 起動直後に1回実行
	if err := b.RunOnce(ctx); err != nil {
		b.logger.Error("キーワード収集サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("キーワード収集バッチジョブを停止しました")
			return
		case <-ticker.C:
			if err := b.RunOnce(ctx); err != nil {
				b.logger.Error("キーワード収集サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回の収集サイクルを実行する。
// フィード設定のあるサイトごとにフィードを取得し、キーワードを入れ替える。
// サイト単位の失敗は他のサイトの処理に影響しない。
func (b *BatchJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	sites, err := b.siteRepo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("サイト一覧の取得に失敗しました: %w", err)
	}

	var processed, failed int
	for _, site := range sites {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if site.ResearchFeedURL == "" {
			continue
		}

		if err := b.collectForSite(ctx, site); err != nil {
			failed++
			b.logger.Error("サイトのキーワード収集に失敗しました",
				slog.String("site_id", site.ID),
				slog.String("site_name", site.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		processed++
	}

	b.logger.Info("キーワード収集サイクルが完了しました",
		slog.Int("processed_sites", processed),
		slog.Int("failed_sites", failed),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// collectForSite は1サイト分のフィード取得とキーワード保存を行う。
func (b *BatchJob) collectForSite(ctx context.Context, site *model.Site) error {
	fetchCtx, cancel := context.WithTimeout(ctx, b.config.FetchTimeout)
	defer cancel()

	feed, err := b.parser.ParseURLWithContext(site.ResearchFeedURL, fetchCtx)
	if err != nil {
		return fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}

	terms := ExtractTerms(feed, maxKeywordsPerSite)
	if len(terms) == 0 {
		b.logger.Warn("フィードからキーワードを抽出できませんでした",
			slog.String("site_id", site.ID),
			slog.String("feed_url", site.ResearchFeedURL),
		)
		return nil
	}

	keywords := make([]*model.Keyword, 0, len(terms))
	for _, term := range terms {
		keywords = append(keywords, &model.Keyword{
			SiteID: site.ID,
			Term:   term,
			Source: keywordSourceFeed,
		})
	}

	if err := b.keywordRepo.ReplaceForSite(ctx, site.ID, keywords); err != nil {
		return fmt.Errorf("キーワードの保存に失敗しました: %w", err)
	}

	b.logger.Info("サイトのキーワードを更新しました",
		slog.String("site_id", site.ID),
		slog.String("site_name", site.Name),
		slog.Int("keyword_count", len(keywords)),
	)

	return nil
}

// ExtractTerms はフィードのエントリからキーワード候補を最大limit件抽出する。
// エントリタイトルを正規化し、カテゴリも候補に含める。重複は除外する。
func ExtractTerms(feed *gofeed.Feed, limit int) []string {
	if feed == nil || limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var terms []string

	add := func(raw string) {
		term := normalizeTerm(raw)
		if term == "" {
			return
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}

	for _, item := range feed.Items {
		if len(terms) >= limit {
			break
		}
		add(item.Title)
	}

	// タイトルで枠が埋まらない場合はカテゴリを補充する
	if len(terms) < limit {
		var categories []string
		catSeen := make(map[string]struct{})
		for _, item := range feed.Items {
			for _, cat := range item.Categories {
				key := strings.ToLower(strings.TrimSpace(cat))
				if key == "" {
					continue
				}
				if _, ok := catSeen[key]; ok {
					continue
				}
				catSeen[key] = struct{}{}
				categories = append(categories, cat)
			}
		}
		sort.Strings(categories)
		for _, cat := range categories {
			if len(terms) >= limit {
				break
			}
			add(cat)
		}
	}

	return terms
}

// normalizeTerm はキーワード候補を正規化する。
// 空白の圧縮と長すぎる候補の除外を行う。
func normalizeTerm(raw string) string {
	term := strings.Join(strings.Fields(raw), " ")
	if term == "" {
		return ""
	}
	if len([]rune(term)) > maxKeywordLength {
		return ""
	}
	return term
}
