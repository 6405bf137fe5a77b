// Package model はドメインモデルを定義する。
package model

import "time"

// PlanStatus はコンテンツプランのライフサイクル状態を表す。
type PlanStatus string

const (
	// PlanStatusScheduled は生成待ちの初期状態。
	PlanStatusScheduled PlanStatus = "scheduled"
	// PlanStatusPendingApproval は生成済みで承認待ちの状態。
	PlanStatusPendingApproval PlanStatus = "pending_approval"
	// PlanStatusPublished は公開済みの終端状態。
	PlanStatusPublished PlanStatus = "published"
	// PlanStatusFailed は手動却下による終端状態。ワーカーは再処理しない。
	PlanStatusFailed PlanStatus = "failed"
)

// ContentPlan は1サイト・1暦日に対する1記事の計画を表す。
// (site_id, scheduled_date) の組につきアクティブなプランは最大1件。
type ContentPlan struct {
	ID             string
	SiteID         string
	Topic          string
	WordCount      int
	ScheduledDate  time.Time // 暦日（時刻部分は無視する）
	Status         PlanStatus
	Title          string
	Content        string // 生成済みHTML（パイプライン成功まで空）
	ExternalPostID string // 公開先の投稿ID（公開まで空）
	ImageCount     int
	InternalLinks  int
	AffiliateCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Terminal はプランが終端状態（published/failed）かを返す。
func (p *ContentPlan) Terminal() bool {
	return p.Status == PlanStatusPublished || p.Status == PlanStatusFailed
}

// GeneratedArticle はコンテンツパイプラインが生成した記事とエンリッチメント件数を表す。
type GeneratedArticle struct {
	Title          string
	HTML           string
	ImageCount     int
	InternalLinks  int
	AffiliateCount int
}
