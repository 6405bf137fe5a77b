package schedule

import (
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

const (
	// defaultPostHour は投稿時刻が未設定・パース不能な場合のフォールバック（時）。
	defaultPostHour = 9
	// defaultPostMinute は投稿時刻のフォールバック（分）。
	defaultPostMinute = 0
)

// ParsePostTime は "HH:MM" 形式の投稿時刻をパースする。
// パース不能な入力は例外を握り潰すのではなく、引数で明示された
// フォールバック値を返す parse-or-default ヘルパーとして振る舞う。
func ParsePostTime(value string, fallbackHour, fallbackMinute int) (hour, minute int) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return fallbackHour, fallbackMinute
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return fallbackHour, fallbackMinute
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return fallbackHour, fallbackMinute
	}
	return h, m
}

// ValidatePostTime は投稿時刻を厳密に検証する。設定編集時に使用する。
func ValidatePostTime(value string) error {
	if value == "" {
		return nil
	}
	h, m := ParsePostTime(value, -1, -1)
	if h == -1 && m == -1 {
		return model.NewInvalidPostTimeError(value)
	}
	return nil
}

// SameDate は2つの時刻が同じ暦日かを返す。
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsDueToday はサイトが今日投稿すべきかを判定する。
// last_post_dateが今日と同じ暦日の場合は頻度にかかわらず必ずfalseを返す
// （同一日内の二重処理を構造的に防ぐガード。最初に無条件で評価される）。
func IsDueToday(site *model.Site, now time.Time) bool {
	if site.LastPostDate != nil && SameDate(*site.LastPostDate, now) {
		return false
	}

	if site.Cadence == model.CadenceMonthly {
		if now.Day() != 1 {
			return false
		}
		// 当月すでに投稿済みの場合は対象外
		if site.LastPostDate != nil &&
			site.LastPostDate.Year() == now.Year() &&
			site.LastPostDate.Month() == now.Month() {
			return false
		}
		return true
	}

	for _, d := range ResolveDays(site.Cadence, site.PostDays) {
		if d == now.Weekday() {
			return true
		}
	}
	return false
}

// NextDueAt は次の投稿予定日時を計算する。
// 頻度設定が空の曜日セットに解決される場合（未知の頻度）は ok=false を返す。
// 曜日セット頻度では、fromの曜日インデックスより厳密に大きい最小の曜日を探し、
// 存在しない場合は翌週のセット内最小曜日に折り返す（オフセットは1〜7日）。
func NextDueAt(site *model.Site, from time.Time) (time.Time, bool) {
	hour, minute := ParsePostTime(site.PostTime, defaultPostHour, defaultPostMinute)

	switch site.Cadence {
	case model.CadenceDaily:
		next := from.AddDate(0, 0, 1)
		return atTime(next, hour, minute), true

	case model.CadenceMonthly:
		// 翌月1日。12月→1月の年跨ぎはtime.Dateの正規化に任せる。
		next := time.Date(from.Year(), from.Month()+1, 1, hour, minute, 0, 0, from.Location())
		return next, true

	default:
		days := ResolveDays(site.Cadence, site.PostDays)
		if len(days) == 0 {
			return time.Time{}, false
		}

		today := from.Weekday()
		for _, d := range days {
			if d > today {
				next := from.AddDate(0, 0, int(d-today))
				return atTime(next, hour, minute), true
			}
		}

		// 今週に候補がない場合は翌週のセット内最小曜日へ折り返す
		first := days[0]
		offset := 7 - int(today) + int(first)
		next := from.AddDate(0, 0, offset)
		return atTime(next, hour, minute), true
	}
}

// NextDueTimes は次のn件の投稿予定日時を遅延列挙するシーケンスを返す。
// 基準時刻を生成した各日時に進めながらNextDueAtを反復し、
// NextDueAtが計算不能を返した時点で打ち切る（n件未満で終了することがある）。
// 返されるシーケンスは再走査可能。
func NextDueTimes(site *model.Site, now time.Time, n int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		cur := now
		for range n {
			next, ok := NextDueAt(site, cur)
			if !ok {
				return
			}
			if !yield(next) {
				return
			}
			cur = next
		}
	}
}

// DateOnly は時刻の暦日部分のみを残した値を返す。
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// atTime は日付を維持したまま時刻部分を差し替える。
func atTime(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}
