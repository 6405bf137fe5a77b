// Package schedule は投稿カレンダーの純粋な計算ロジックを提供する。
// 隠れた状態を持たず、すべての操作は頻度設定と基準時刻を明示的に受け取る。
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// weekdayNames は曜日名（小文字）からtime.Weekdayへの対応表。
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// requiredDayCount は明示的な曜日セットに要求される個数。
// daily/monthlyは曜日セットを取らないため含まれない。
var requiredDayCount = map[model.Cadence]int{
	model.CadenceFivePerWeek:  5,
	model.CadenceThreePerWeek: 3,
	model.CadenceWeekly:       1,
}

// defaultDaySets は曜日セット未指定時のデフォルト。
var defaultDaySets = map[model.Cadence][]time.Weekday{
	model.CadenceFivePerWeek:  {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	model.CadenceThreePerWeek: {time.Monday, time.Wednesday, time.Friday},
	model.CadenceWeekly:       {time.Monday},
}

// allWeekdays はdaily用の全曜日セット（日曜始まり）。
var allWeekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// ParseWeekday は曜日名をtime.Weekdayに変換する。大文字小文字を区別しない。
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("認識できない曜日名です: %q", name)
	}
	return d, nil
}

// KnownCadence は頻度が定義済みの列挙に含まれるかを返す。
func KnownCadence(cadence model.Cadence) bool {
	switch cadence {
	case model.CadenceDaily, model.CadenceFivePerWeek, model.CadenceThreePerWeek,
		model.CadenceWeekly, model.CadenceMonthly:
		return true
	}
	return false
}

// ValidateDays は明示的な曜日セットを厳密に検証する。
// 設定編集など利用者向けのバリデーションで使用する入口であり、
// 不正な入力はデフォルトへのフォールバックではなくエラーとして返す。
func ValidateDays(cadence model.Cadence, days []string) error {
	if !KnownCadence(cadence) {
		return model.NewInvalidCadenceError(string(cadence))
	}

	if len(days) == 0 {
		// 未指定はデフォルトセットが適用されるため常に有効
		return nil
	}

	required, ok := requiredDayCount[cadence]
	if !ok {
		return model.NewInvalidPostDaysError(
			fmt.Sprintf("頻度 %s は曜日指定を受け付けません", cadence))
	}

	parsed, err := parseDaySet(days, required)
	if err != nil {
		return model.NewInvalidPostDaysError(err.Error())
	}
	_ = parsed
	return nil
}

// ResolveDays は頻度設定を投稿可能な曜日セットに解決する。
// 実行時の寛容な参照であり、曜日セットが不正な場合はクラッシュせず
// ドキュメント化されたデフォルトセットにフォールバックする。
// monthlyと未知の頻度は空を返す。
func ResolveDays(cadence model.Cadence, days []string) []time.Weekday {
	switch cadence {
	case model.CadenceDaily:
		return allWeekdays
	case model.CadenceFivePerWeek, model.CadenceThreePerWeek, model.CadenceWeekly:
		if parsed, err := parseDaySet(days, requiredDayCount[cadence]); err == nil {
			return parsed
		}
		return defaultDaySets[cadence]
	default:
		return nil
	}
}

// parseDaySet は曜日名のリストをパースし、個数と重複を検証する。
// 結果は曜日インデックス昇順（日曜=0始まり）でソートされる。
func parseDaySet(days []string, required int) ([]time.Weekday, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("曜日が指定されていません")
	}

	seen := make(map[time.Weekday]bool, len(days))
	for _, name := range days {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			return nil, fmt.Errorf("曜日が重複しています: %s", strings.ToLower(name))
		}
		seen[d] = true
	}

	if len(seen) != required {
		return nil, fmt.Errorf("曜日の個数が不正です: %d個（必要: %d個）", len(seen), required)
	}

	var result []time.Weekday
	for _, d := range allWeekdays {
		if seen[d] {
			result = append(result, d)
		}
	}
	return result, nil
}
