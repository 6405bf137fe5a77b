// Package model はドメインモデルを定義する。
package model

import "fmt"

// RunStats はデーモン1回の実行結果の集計を表す。
// プロセスの終了コード判定（Failed > 0 なら非ゼロ）に使用される。
type RunStats struct {
	Checked   int      // CHECK_DUEを評価したサイト数
	Processed int      // DELIVERまで成功したサイト数
	Failed    int      // 途中で失敗したサイト数
	Generated int      // 記事生成に成功した件数
	Published int      // 即時公開された件数
	Pending   int      // 承認待ちに積まれた件数
	Errors    []string // 失敗サイトごとのエラーメッセージ（発生順）
}

// AddFailure は失敗サイトを集計に記録する。
func (s *RunStats) AddFailure(siteName string, err error) {
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", siteName, err))
}

// HasFailures は1件以上の失敗があったかを返す。
func (s *RunStats) HasFailures() bool {
	return s.Failed > 0
}
