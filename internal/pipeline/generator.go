package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/postflow/internal/imagesearch"
	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/sitemap"
)

// plannerSchema はプランナーの構造化出力スキーマ。
const plannerSchema = `{
  "name": "article_plan",
  "description": "記事のタイトルと見出し構成",
  "schema": {
    "type": "object",
    "properties": {
      "title": {
        "type": "string",
        "description": "記事タイトル（32文字前後）"
      },
      "outline": {
        "type": "array",
        "items": {"type": "string"},
        "description": "h2見出しの構成案"
      }
    },
    "required": ["title", "outline"],
    "additionalProperties": false
  }
}`

// articlePlan はプランナーの構造化出力。
type articlePlan struct {
	Title   string   `json:"title"`
	Outline []string `json:"outline"`
}

// ImageSearcher は画像検索のインターフェース。テスト時にモックに差し替え可能。
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]imagesearch.Image, error)
}

// LinkSource は内部リンク候補取得のインターフェース。テスト時にモックに差し替え可能。
type LinkSource interface {
	FetchURLs(ctx context.Context, sitemapURL string) ([]string, error)
	FetchTitle(ctx context.Context, pageURL string) string
}

// Sanitizer は記事HTMLのサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// GeneratorConfig は記事生成の設定パラメータ。
type GeneratorConfig struct {
	PlannerModel     string
	PlannerMaxTokens int
	WriterModel      string
	WriterMaxTokens  int
	// MaxImages は記事に挿入する画像の上限（デフォルト: 3）。
	MaxImages int
	// MaxInternalLinks は関連記事リンクの上限（デフォルト: 3）。
	MaxInternalLinks int
}

// Generator はトピックから公開可能な記事を生成する。
// 画像検索と内部リンクはベストエフォートで、失敗しても生成は継続する。
type Generator struct {
	writer    ArticleWriter
	images    ImageSearcher // nil可（画像なしで生成）
	links     LinkSource    // nil可（内部リンクなしで生成）
	sanitizer Sanitizer
	prompts   *Prompts
	config    GeneratorConfig
	logger    *slog.Logger
}

// NewGenerator はGenerator の新しいインスタンスを生成する。
func NewGenerator(
	writer ArticleWriter,
	images ImageSearcher,
	links LinkSource,
	sanitizer Sanitizer,
	prompts *Prompts,
	config GeneratorConfig,
	logger *slog.Logger,
) *Generator {
	if config.MaxImages <= 0 {
		config.MaxImages = 3
	}
	if config.MaxInternalLinks <= 0 {
		config.MaxInternalLinks = 3
	}
	return &Generator{
		writer:    writer,
		images:    images,
		links:     links,
		sanitizer: sanitizer,
		prompts:   prompts,
		config:    config,
		logger:    logger,
	}
}

// Generate はトピックから記事を生成する。
// 計画（タイトル・構成）、執筆、画像・リンク付加、サニタイズの順に実行する。
// 計画と執筆の失敗はエラーを返し、付加処理の失敗は記事なしで続行する。
func (g *Generator) Generate(ctx context.Context, site *model.Site, topic string) (*model.GeneratedArticle, error) {
	plan, err := g.plan(ctx, site, topic)
	if err != nil {
		return nil, err
	}

	html, err := g.write(ctx, site, plan)
	if err != nil {
		return nil, err
	}

	article := &model.GeneratedArticle{
		Title: plan.Title,
		HTML:  html,
	}

	g.enrichImages(ctx, article, topic)
	g.enrichInternalLinks(ctx, article, site, topic)
	enrichAffiliateLinks(article, site.AffiliateLinks)

	article.HTML = g.sanitizer.Sanitize(article.HTML)

	return article, nil
}

// plan はプランナーを呼び出して記事タイトルと見出し構成を決定する。
func (g *Generator) plan(ctx context.Context, site *model.Site, topic string) (*articlePlan, error) {
	user, err := render(g.prompts.Planner.User, promptData{
		Topic:     topic,
		SiteName:  site.Name,
		SiteURL:   site.SiteURL,
		WordCount: site.WordCount,
	})
	if err != nil {
		return nil, err
	}

	text, err := g.writer.Complete(ctx, CompletionRequest{
		System:    g.prompts.Planner.System,
		User:      user,
		Schema:    plannerSchema,
		Model:     g.config.PlannerModel,
		MaxTokens: g.config.PlannerMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("記事計画の生成に失敗しました: %w", err)
	}

	var plan articlePlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("記事計画のパースに失敗しました: %w", err)
	}
	if plan.Title == "" {
		plan.Title = topic
	}
	return &plan, nil
}

// write はライターを呼び出して記事本文HTMLを生成する。
func (g *Generator) write(ctx context.Context, site *model.Site, plan *articlePlan) (string, error) {
	user, err := render(g.prompts.Writer.User, promptData{
		SiteName:  site.Name,
		SiteURL:   site.SiteURL,
		WordCount: site.WordCount,
		Title:     plan.Title,
		Outline:   plan.Outline,
	})
	if err != nil {
		return "", err
	}

	text, err := g.writer.Complete(ctx, CompletionRequest{
		System:      g.prompts.Writer.System,
		User:        user,
		Model:       g.config.WriterModel,
		MaxTokens:   g.config.WriterMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("記事本文の生成に失敗しました: %w", err)
	}

	html := stripCodeFence(text)
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("記事本文が空です")
	}
	return html, nil
}

// enrichImages は記事に画像を挿入する。失敗してもエラーにしない。
func (g *Generator) enrichImages(ctx context.Context, article *model.GeneratedArticle, topic string) {
	if g.images == nil {
		return
	}
	images, err := g.images.Search(ctx, topic, g.config.MaxImages)
	if err != nil {
		g.logger.Warn("画像検索に失敗したため画像なしで続行します",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	article.HTML, article.ImageCount = insertImages(article.HTML, images, g.config.MaxImages)
}

// enrichInternalLinks はサイトマップから関連記事リンクを付加する。失敗してもエラーにしない。
func (g *Generator) enrichInternalLinks(ctx context.Context, article *model.GeneratedArticle, site *model.Site, topic string) {
	if g.links == nil || site.SitemapURL == "" {
		return
	}
	urls, err := g.links.FetchURLs(ctx, site.SitemapURL)
	if err != nil {
		g.logger.Warn("サイトマップの取得に失敗したため内部リンクなしで続行します",
			slog.String("site_id", site.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	relevant := sitemap.RelevantURLs(urls, topic, g.config.MaxInternalLinks)
	if len(relevant) == 0 {
		return
	}

	pages := make([]sitemap.Page, 0, len(relevant))
	for _, u := range relevant {
		pages = append(pages, sitemap.Page{URL: u, Title: g.links.FetchTitle(ctx, u)})
	}
	article.HTML = appendRelatedLinks(article.HTML, pages)
	article.InternalLinks = len(pages)
}

// stripCodeFence はLLMが付けがちなコードフェンスを除去する。
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```html")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
