package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// postsPerMonth は頻度ごとの月間投稿数の目安。
var postsPerMonth = map[model.Cadence]int{
	model.CadenceDaily:        30,
	model.CadenceFivePerWeek:  20,
	model.CadenceThreePerWeek: 12,
	model.CadenceWeekly:       4,
	model.CadenceMonthly:      1,
}

// EstimatedPostsPerMonth は頻度から月間投稿数の目安を返す。
// 未知の頻度は0を返す。
func EstimatedPostsPerMonth(cadence model.Cadence) int {
	return postsPerMonth[cadence]
}

// Describe は頻度設定を人間可読な説明文字列にする。副作用はない。
func Describe(cadence model.Cadence, days []string) string {
	switch cadence {
	case model.CadenceDaily:
		return "毎日"
	case model.CadenceMonthly:
		return "毎月1日"
	case model.CadenceFivePerWeek, model.CadenceThreePerWeek, model.CadenceWeekly:
		resolved := ResolveDays(cadence, days)
		names := make([]string, 0, len(resolved))
		for _, d := range resolved {
			names = append(names, weekdayLabel(d))
		}
		return fmt.Sprintf("週%d回（%s）", len(resolved), strings.Join(names, "・"))
	default:
		return fmt.Sprintf("不明な頻度（%s）", cadence)
	}
}

// weekdayLabel は曜日の日本語表記を返す。
func weekdayLabel(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "日"
	case time.Monday:
		return "月"
	case time.Tuesday:
		return "火"
	case time.Wednesday:
		return "水"
	case time.Thursday:
		return "木"
	case time.Friday:
		return "金"
	case time.Saturday:
		return "土"
	}
	return "?"
}
