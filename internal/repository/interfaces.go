// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// SiteRepository はサイト設定の永続化インターフェース。
type SiteRepository interface {
	// List はサイト一覧を返す。onlyAutomatableがtrueの場合は
	// 頻度と投稿先が設定された自動投稿対象のサイトのみを返す。
	List(ctx context.Context, onlyAutomatable bool) ([]*model.Site, error)

	// FindByID は指定IDのサイトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Site, error)

	// Create はサイトを作成する。
	Create(ctx context.Context, site *model.Site) error

	// Update はサイト設定を更新する。last_post_dateは更新しない。
	Update(ctx context.Context, site *model.Site) error

	// Delete は指定IDのサイトを削除する。関連プラン・キーワードはCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// UpdateLastPostDate は最終投稿日を更新する。
	// デーモンのRECORDステップ（DELIVER成功後）からのみ呼ばれる。
	UpdateLastPostDate(ctx context.Context, siteID string, date time.Time) error
}

// PlanRepository はコンテンツプランの永続化インターフェース。
type PlanRepository interface {
	// FindByID は指定IDのプランを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ContentPlan, error)

	// FindBySiteAndDate は(site_id, 暦日)でアクティブなプランを検索する。
	// 冪等なget-or-createの参照側。見つからない場合はnilを返す。
	FindBySiteAndDate(ctx context.Context, siteID string, date time.Time) (*model.ContentPlan, error)

	// ListBySite はサイトのプラン一覧を予定日降順で返す。
	ListBySite(ctx context.Context, siteID string, limit int) ([]*model.ContentPlan, error)

	// ListByStatus は指定ステータスのプラン一覧を予定日昇順で返す。
	ListByStatus(ctx context.Context, status model.PlanStatus, limit int) ([]*model.ContentPlan, error)

	// ListTopicsBySite はサイトの既存プランのトピック一覧を返す。
	// キーワード選択の使用済み判定に使う。
	ListTopicsBySite(ctx context.Context, siteID string) ([]string, error)

	// Create はプランを作成する。
	Create(ctx context.Context, plan *model.ContentPlan) error

	// UpdateStatus はプランのステータスと生成結果を更新する。
	// contentとexternalPostIDは空文字列の場合は既存値を維持する。
	UpdateStatus(ctx context.Context, plan *model.ContentPlan) error
}

// KeywordRepository はリサーチ済みキーワード候補の永続化インターフェース。
type KeywordRepository interface {
	// ListBySite はサイトのキーワード候補を新しい順で返す。
	ListBySite(ctx context.Context, siteID string) ([]*model.Keyword, error)

	// ReplaceForSite はサイトのキーワード候補を入れ替える。
	// リサーチバッチが最新の候補リストで全置換するために使う。
	ReplaceForSite(ctx context.Context, siteID string, keywords []*model.Keyword) error
}
