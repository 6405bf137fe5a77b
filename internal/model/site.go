// Package model はドメインモデルを定義する。
package model

import "time"

// Cadence はサイトの投稿頻度ルールを表す。
type Cadence string

const (
	// CadenceDaily は毎日投稿する頻度。
	CadenceDaily Cadence = "daily"
	// CadenceFivePerWeek は週5回投稿する頻度。
	CadenceFivePerWeek Cadence = "five_per_week"
	// CadenceThreePerWeek は週3回投稿する頻度。
	CadenceThreePerWeek Cadence = "three_per_week"
	// CadenceWeekly は週1回投稿する頻度。
	CadenceWeekly Cadence = "weekly"
	// CadenceMonthly は毎月1日に投稿する頻度。
	CadenceMonthly Cadence = "monthly"
)

// Site は管理対象のWebサイトを表す。
// LastPostDateは日付部分のみが有効で、デーモンがDELIVER成功後にのみ更新する。
type Site struct {
	ID              string
	Name            string
	SiteURL         string
	SitemapURL      string
	ResearchFeedURL string
	Cadence         Cadence
	PostDays        []string // 明示的な投稿曜日セット（省略時は頻度ごとのデフォルト）
	PostTime        string   // 投稿時刻 "HH:MM"（パース不能時は09:00にフォールバック）
	WordCount       int
	AutoPublish     bool
	WPEndpoint      string
	WPUsername      string
	WPAppPassword   string
	AffiliateLinks  []AffiliateLink
	LastPostDate    *time.Time // 最終投稿日（未投稿の場合はnil）
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AffiliateLink はサイトに設定されたアフィリエイトリンクを表す。
// 生成記事内のキーワード出現箇所にリンクとして挿入される。
type AffiliateLink struct {
	Keyword string `json:"keyword"`
	URL     string `json:"url"`
}

// Automatable は自動投稿の対象となる設定が揃っているかを返す。
// 頻度と投稿先（WordPressエンドポイント）の両方が必要。
func (s *Site) Automatable() bool {
	return s.Cadence != "" && s.WPEndpoint != ""
}

// Keyword はキーワードリサーチで得られた候補キーワードを表す。
type Keyword struct {
	ID        string
	SiteID    string
	Term      string
	Source    string // リサーチ元（例: "feed"）
	CreatedAt time.Time
}
