// Package keyword は記事トピックとなるキーワードの選択機能を提供する。
package keyword

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/repository"
)

// Service はサイトの次の記事トピックを決定する。
// リサーチ済みキーワードのうちプランで未使用のものを優先し、
// 全て使用済みの場合は既存プラン数に基づいて循環的に再利用する。
type Service struct {
	keywordRepo repository.KeywordRepository
	planRepo    repository.PlanRepository
	logger      *slog.Logger
}

// NewService はService の新しいインスタンスを生成する。
func NewService(
	keywordRepo repository.KeywordRepository,
	planRepo repository.PlanRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		keywordRepo: keywordRepo,
		planRepo:    planRepo,
		logger:      logger,
	}
}

// NextTopic はサイトの次の記事トピックを返す。
// 選択順序:
//  1. リサーチ済みキーワードのうち、既存プランのトピックに使われていない最初のもの
//  2. 全て使用済みの場合はプラン数に基づく循環再利用
//  3. キーワードが1件もない場合はサイト名をトピックとして返す
func (s *Service) NextTopic(ctx context.Context, site *model.Site) (string, error) {
	keywords, err := s.keywordRepo.ListBySite(ctx, site.ID)
	if err != nil {
		return "", fmt.Errorf("キーワード候補の取得に失敗しました: %w", err)
	}

	if len(keywords) == 0 {
		s.logger.Warn("キーワード候補がないためサイト名をトピックに使用します",
			slog.String("site_id", site.ID),
			slog.String("site_name", site.Name),
		)
		return site.Name, nil
	}

	topics, err := s.planRepo.ListTopicsBySite(ctx, site.ID)
	if err != nil {
		return "", fmt.Errorf("既存トピックの取得に失敗しました: %w", err)
	}

	used := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		used[strings.ToLower(strings.TrimSpace(topic))] = struct{}{}
	}

	for _, kw := range keywords {
		if _, ok := used[strings.ToLower(strings.TrimSpace(kw.Term))]; !ok {
			return kw.Term, nil
		}
	}

	// 全て使用済み: プラン数に基づいて決定的に循環させる
	recycled := keywords[len(topics)%len(keywords)]
	s.logger.Info("全キーワードが使用済みのため循環再利用します",
		slog.String("site_id", site.ID),
		slog.String("term", recycled.Term),
	)
	return recycled.Term, nil
}
