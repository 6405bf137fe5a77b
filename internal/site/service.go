// Package site はサイト設定の管理機能を提供する。
package site

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/postflow/internal/model"
	"github.com/hitoshi/postflow/internal/repository"
	"github.com/hitoshi/postflow/internal/schedule"
)

const (
	// defaultWordCount は目標文字数が未指定の場合のデフォルト。
	defaultWordCount = 2000
	// defaultPostTime は投稿時刻が未指定の場合のデフォルト。
	defaultPostTime = "09:00"
)

// URLValidator はURLの安全性検証のインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// SchedulePreview はサイトの投稿スケジュールの要約。
type SchedulePreview struct {
	Cadence           model.Cadence
	Description       string
	EstimatedPerMonth int
	NextRuns          []time.Time
}

// Service はサイト設定のCRUDとスケジュール計算を提供する。
type Service struct {
	repo      repository.SiteRepository
	validator URLValidator
	logger    *slog.Logger
}

// NewService はService の新しいインスタンスを生成する。
func NewService(repo repository.SiteRepository, validator URLValidator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

// List はサイト一覧を返す。
func (s *Service) List(ctx context.Context, onlyAutomatable bool) ([]*model.Site, error) {
	sites, err := s.repo.List(ctx, onlyAutomatable)
	if err != nil {
		return nil, fmt.Errorf("サイト一覧の取得に失敗しました: %w", err)
	}
	return sites, nil
}

// Get は指定IDのサイトを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Site, error) {
	site, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("サイトの取得に失敗しました: %w", err)
	}
	if site == nil {
		return nil, model.NewSiteNotFoundError(id)
	}
	return site, nil
}

// Create はサイトを検証して作成する。IDと未指定項目のデフォルトを補完する。
func (s *Service) Create(ctx context.Context, site *model.Site) (*model.Site, error) {
	applyDefaults(site)
	if err := s.validate(site); err != nil {
		return nil, err
	}

	site.ID = uuid.NewString()
	if err := s.repo.Create(ctx, site); err != nil {
		return nil, fmt.Errorf("サイトの作成に失敗しました: %w", err)
	}

	s.logger.Info("サイトを作成しました",
		slog.String("site_id", site.ID),
		slog.String("name", site.Name),
		slog.String("cadence", string(site.Cadence)),
	)
	return site, nil
}

// Update はサイト設定を検証して更新する。last_post_dateは変更しない。
func (s *Service) Update(ctx context.Context, site *model.Site) (*model.Site, error) {
	existing, err := s.Get(ctx, site.ID)
	if err != nil {
		return nil, err
	}

	applyDefaults(site)
	if err := s.validate(site); err != nil {
		return nil, err
	}

	site.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, site); err != nil {
		return nil, fmt.Errorf("サイトの更新に失敗しました: %w", err)
	}

	s.logger.Info("サイトを更新しました",
		slog.String("site_id", site.ID),
		slog.String("name", site.Name),
	)
	return site, nil
}

// Delete は指定IDのサイトを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("サイトの削除に失敗しました: %w", err)
	}
	s.logger.Info("サイトを削除しました", slog.String("site_id", id))
	return nil
}

// Schedule はサイトの投稿スケジュールの要約と次回n件の予定日時を返す。
func (s *Service) Schedule(ctx context.Context, id string, n int) (*SchedulePreview, error) {
	site, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 5
	}

	preview := &SchedulePreview{
		Cadence:           site.Cadence,
		Description:       schedule.Describe(site.Cadence, site.PostDays),
		EstimatedPerMonth: schedule.EstimatedPostsPerMonth(site.Cadence),
		NextRuns:          collect(schedule.NextDueTimes(site, time.Now(), n)),
	}
	return preview, nil
}

// validate はサイト設定を厳密に検証する。
func (s *Service) validate(site *model.Site) error {
	if site.Name == "" {
		return &model.APIError{
			Code:     "INVALID_SITE_NAME",
			Message:  "サイト名は必須です",
			Category: "validation",
			Action:   "サイト名を入力してください。",
		}
	}

	if site.Cadence != "" {
		if !schedule.KnownCadence(site.Cadence) {
			return model.NewInvalidCadenceError(string(site.Cadence))
		}
		if err := schedule.ValidateDays(site.Cadence, site.PostDays); err != nil {
			return err
		}
	}

	if err := schedule.ValidatePostTime(site.PostTime); err != nil {
		return err
	}

	for _, u := range []string{site.SiteURL, site.SitemapURL, site.ResearchFeedURL, site.WPEndpoint} {
		if u == "" {
			continue
		}
		if err := s.validator.ValidateURL(u); err != nil {
			return model.NewInvalidURLError(err.Error())
		}
	}

	return nil
}

// applyDefaults は未指定項目にデフォルト値を補完する。
func applyDefaults(site *model.Site) {
	if site.WordCount <= 0 {
		site.WordCount = defaultWordCount
	}
	if site.PostTime == "" {
		site.PostTime = defaultPostTime
	}
}

// collect はシーケンスをスライスに具現化する。
func collect(seq iter.Seq[time.Time]) []time.Time {
	var result []time.Time
	for t := range seq {
		result = append(result, t)
	}
	return result
}
