// Package plan はコンテンツプランの参照と承認ワークフローを提供する。
package plan

import (
	"context"
	"fmt"
	"log/slog"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/repository"
)

// defaultListLimit は一覧取得のデフォルト件数。
const defaultListLimit = 50

// Publisher は承認済み記事の公開インターフェース。
type Publisher interface {
	Publish(ctx context.Context, site *model.Site, article *model.GeneratedArticle) (string, error)
}

// Service はコンテンツプランの一覧・参照・承認・却下を提供する。
type Service struct {
	planRepo  repository.PlanRepository
	siteRepo  repository.SiteRepository
	publisher Publisher
	converter *md.Converter
	logger    *slog.Logger
}

// NewService はService の新しいインスタンスを生成する。
func NewService(planRepo repository.PlanRepository, siteRepo repository.SiteRepository, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		planRepo:  planRepo,
		siteRepo:  siteRepo,
		publisher: publisher,
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// List はプラン一覧を返す。statusが空の場合はサイト指定の一覧、
// siteIDも空の場合は承認待ちプランを返す。
func (s *Service) List(ctx context.Context, siteID string, status model.PlanStatus, limit int) ([]*model.ContentPlan, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if status != "" {
		plans, err := s.planRepo.ListByStatus(ctx, status, limit)
		if err != nil {
			return nil, fmt.Errorf("プラン一覧の取得に失敗しました: %w", err)
		}
		return plans, nil
	}

	if siteID != "" {
		plans, err := s.planRepo.ListBySite(ctx, siteID, limit)
		if err != nil {
			return nil, fmt.Errorf("プラン一覧の取得に失敗しました: %w", err)
		}
		return plans, nil
	}

	plans, err := s.planRepo.ListByStatus(ctx, model.PlanStatusPendingApproval, limit)
	if err != nil {
		return nil, fmt.Errorf("承認待ちプランの取得に失敗しました: %w", err)
	}
	return plans, nil
}

// Get は指定IDのプランを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.ContentPlan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プランの取得に失敗しました: %w", err)
	}
	if plan == nil {
		return nil, model.NewPlanNotFoundError(id)
	}
	return plan, nil
}

// Preview は生成済み記事をMarkdownに変換してレビュー用に返す。
func (s *Service) Preview(ctx context.Context, id string) (string, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if plan.Content == "" {
		return "", nil
	}

	markdown, err := s.converter.ConvertString(plan.Content)
	if err != nil {
		return "", fmt.Errorf("Markdownへの変換に失敗しました: %w", err)
	}
	return markdown, nil
}

// Approve は承認待ちプランを公開する。
// 公開成功時にステータスをpublishedへ更新し、外部投稿IDを記録する。
func (s *Service) Approve(ctx context.Context, id string) (*model.ContentPlan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Status != model.PlanStatusPendingApproval {
		return nil, model.NewPlanNotApprovableError(plan.Status)
	}

	site, err := s.siteRepo.FindByID(ctx, plan.SiteID)
	if err != nil {
		return nil, fmt.Errorf("サイトの取得に失敗しました: %w", err)
	}
	if site == nil {
		return nil, model.NewSiteNotFoundError(plan.SiteID)
	}

	article := &model.GeneratedArticle{
		Title:          plan.Title,
		HTML:           plan.Content,
		ImageCount:     plan.ImageCount,
		InternalLinks:  plan.InternalLinks,
		AffiliateCount: plan.AffiliateCount,
	}

	postID, err := s.publisher.Publish(ctx, site, article)
	if err != nil {
		return nil, fmt.Errorf("記事の公開に失敗しました: %w", err)
	}

	plan.Status = model.PlanStatusPublished
	plan.ExternalPostID = postID
	if err := s.planRepo.UpdateStatus(ctx, plan); err != nil {
		return nil, fmt.Errorf("プランの更新に失敗しました: %w", err)
	}

	s.logger.Info("プランを承認・公開しました",
		slog.String("plan_id", plan.ID),
		slog.String("site_id", plan.SiteID),
		slog.String("external_post_id", postID),
	)
	return plan, nil
}

// Reject は承認待ちプランを却下してfailedへ遷移させる。
// 生成済みコンテンツは監査用に保持される。
func (s *Service) Reject(ctx context.Context, id string) (*model.ContentPlan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Status != model.PlanStatusPendingApproval {
		return nil, model.NewPlanNotApprovableError(plan.Status)
	}

	plan.Status = model.PlanStatusFailed
	if err := s.planRepo.UpdateStatus(ctx, plan); err != nil {
		return nil, fmt.Errorf("プランの更新に失敗しました: %w", err)
	}

	s.logger.Info("プランを却下しました",
		slog.String("plan_id", plan.ID),
		slog.String("site_id", plan.SiteID),
	)
	return plan, nil
}
