// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, site, plan, publish, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCadence    = "INVALID_CADENCE"
	ErrCodeInvalidPostDays   = "INVALID_POST_DAYS"
	ErrCodeInvalidPostTime   = "INVALID_POST_TIME"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeSiteNotFound      = "SITE_NOT_FOUND"
	ErrCodePlanNotFound      = "PLAN_NOT_FOUND"
	ErrCodePlanNotApprovable = "PLAN_NOT_APPROVABLE"
	ErrCodePublishFailed     = "PUBLISH_FAILED"
	ErrCodePublishAuth       = "PUBLISH_AUTH_FAILED"
	ErrCodeGenerateFailed    = "GENERATE_FAILED"
)

// NewInvalidCadenceError は未知の投稿頻度エラーを生成する。
func NewInvalidCadenceError(cadence string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCadence,
		Message:  fmt.Sprintf("無効な投稿頻度です: %s", cadence),
		Category: "validation",
		Action:   "daily、five_per_week、three_per_week、weekly、monthly のいずれかを指定してください。",
	}
}

// NewInvalidPostDaysError は無効な投稿曜日セットエラーを生成する。
func NewInvalidPostDaysError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPostDays,
		Message:  fmt.Sprintf("無効な投稿曜日の指定です: %s", reason),
		Category: "validation",
		Action:   "頻度に応じた個数の曜日名（例: monday, wednesday, friday）を指定してください。",
	}
}

// NewInvalidPostTimeError は無効な投稿時刻エラーを生成する。
func NewInvalidPostTimeError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPostTime,
		Message:  fmt.Sprintf("無効な投稿時刻です: %s", value),
		Category: "validation",
		Action:   "投稿時刻は HH:MM 形式（例: 09:30）で指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSiteNotFoundError はサイト未検出エラーを生成する。
func NewSiteNotFoundError(siteID string) *APIError {
	return &APIError{
		Code:     ErrCodeSiteNotFound,
		Message:  fmt.Sprintf("指定されたサイトが見つかりません: %s", siteID),
		Category: "site",
		Action:   "サイトIDを確認してください。",
	}
}

// NewPlanNotFoundError はコンテンツプラン未検出エラーを生成する。
func NewPlanNotFoundError(planID string) *APIError {
	return &APIError{
		Code:     ErrCodePlanNotFound,
		Message:  fmt.Sprintf("指定されたコンテンツプランが見つかりません: %s", planID),
		Category: "plan",
		Action:   "プランIDを確認してください。",
	}
}

// NewPlanNotApprovableError は承認対象外プランへの承認操作エラーを生成する。
func NewPlanNotApprovableError(status PlanStatus) *APIError {
	return &APIError{
		Code:     ErrCodePlanNotApprovable,
		Message:  fmt.Sprintf("このプランは承認できる状態ではありません: %s", status),
		Category: "plan",
		Action:   "承認は pending_approval 状態のプランに対してのみ実行できます。",
	}
}

// NewPublishAuthError は公開先の認証失敗エラーを生成する。
// 恒久的エラーのためリトライ対象外。
func NewPublishAuthError(endpoint string) *APIError {
	return &APIError{
		Code:     ErrCodePublishAuth,
		Message:  fmt.Sprintf("公開先の認証に失敗しました: %s", endpoint),
		Category: "publish",
		Action:   "WordPressのユーザー名とアプリケーションパスワードを確認してください。",
	}
}

// NewPublishFailedError は公開失敗エラーを生成する。
func NewPublishFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePublishFailed,
		Message:  fmt.Sprintf("記事の公開に失敗しました: %s", reason),
		Category: "publish",
		Action:   "公開先エンドポイントの状態を確認し、しばらく待ってから再度お試しください。",
	}
}
