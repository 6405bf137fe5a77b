package schedule

import (
	"testing"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

// date は暦日のみのtime.Timeを作るテストヘルパー。
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

// --- ParsePostTime ---

func TestParsePostTime_Valid(t *testing.T) {
	h, m := ParsePostTime("14:30", 9, 0)
	if h != 14 || m != 30 {
		t.Errorf("ParsePostTime(14:30) = %d:%d, want 14:30", h, m)
	}
}

func TestParsePostTime_FallsBack(t *testing.T) {
	tests := []string{"", "abc", "25:00", "12:99", "12", "12:30:45x"}
	for _, input := range tests {
		h, m := ParsePostTime(input, 9, 0)
		if h != 9 || m != 0 {
			t.Errorf("ParsePostTime(%q) = %d:%d, フォールバック 9:00 を返すべき", input, h, m)
		}
	}
}

func TestValidatePostTime(t *testing.T) {
	if err := ValidatePostTime("09:30"); err != nil {
		t.Errorf("09:30 は有効であるべき: %v", err)
	}
	if err := ValidatePostTime(""); err != nil {
		t.Errorf("空文字は有効（デフォルト適用）であるべき: %v", err)
	}
	if err := ValidatePostTime("24:00"); err == nil {
		t.Error("24:00 はエラーを返すべき")
	}
}

// --- IsDueToday ---

func TestIsDueToday_AlreadyPostedToday(t *testing.T) {
	// 2024-06-10は月曜。dailyでも当日投稿済みなら対象外（冪等ガード）。
	site := &model.Site{
		Cadence:      model.CadenceDaily,
		LastPostDate: datePtr(2024, time.June, 10),
	}
	now := time.Date(2024, time.June, 10, 23, 0, 0, 0, time.UTC)
	if IsDueToday(site, now) {
		t.Error("当日投稿済みのサイトは頻度にかかわらず対象外であるべき")
	}
}

func TestIsDueToday_Daily(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceDaily}
	// 全曜日で対象となる
	for i := range 7 {
		now := date(2024, time.June, 9+i)
		if !IsDueToday(site, now) {
			t.Errorf("dailyは%vも対象であるべき", now.Weekday())
		}
	}
}

func TestIsDueToday_WeekdaySet(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceThreePerWeek} // デフォルト月水金

	monday := date(2024, time.June, 10)
	if !IsDueToday(site, monday) {
		t.Error("月曜は対象であるべき")
	}

	tuesday := date(2024, time.June, 11)
	if IsDueToday(site, tuesday) {
		t.Error("火曜は対象外であるべき")
	}
}

func TestIsDueToday_ExplicitDays(t *testing.T) {
	site := &model.Site{
		Cadence:  model.CadenceWeekly,
		PostDays: []string{"thursday"},
	}
	thursday := date(2024, time.June, 13)
	if !IsDueToday(site, thursday) {
		t.Error("明示指定した木曜は対象であるべき")
	}
	monday := date(2024, time.June, 10)
	if IsDueToday(site, monday) {
		t.Error("デフォルトの月曜ではなく明示指定が優先されるべき")
	}
}

func TestIsDueToday_MonthlyOnFirstDay(t *testing.T) {
	site := &model.Site{
		Cadence:      model.CadenceMonthly,
		LastPostDate: datePtr(2024, time.June, 1),
	}
	// 前月に投稿済みで7月1日 → 対象
	if !IsDueToday(site, date(2024, time.July, 1)) {
		t.Error("前月投稿済みの7月1日は対象であるべき")
	}
}

func TestIsDueToday_MonthlyNotFirstDay(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceMonthly}
	if IsDueToday(site, date(2024, time.July, 2)) {
		t.Error("monthlyは1日以外は対象外であるべき")
	}
}

func TestIsDueToday_MonthlyAlreadyPostedThisMonth(t *testing.T) {
	site := &model.Site{
		Cadence:      model.CadenceMonthly,
		LastPostDate: datePtr(2024, time.July, 1),
	}
	if IsDueToday(site, date(2024, time.July, 1)) {
		t.Error("当月投稿済みのmonthlyは対象外であるべき")
	}
}

func TestIsDueToday_UnknownCadence(t *testing.T) {
	site := &model.Site{Cadence: model.Cadence("hourly")}
	if IsDueToday(site, date(2024, time.June, 10)) {
		t.Error("未知の頻度は対象外であるべき")
	}
}

// --- NextDueAt ---

func TestNextDueAt_Daily(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceDaily, PostTime: "07:30"}
	from := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

	next, ok := NextDueAt(site, from)
	if !ok {
		t.Fatal("dailyは常に次回日時を返すべき")
	}
	want := time.Date(2024, time.June, 11, 7, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextDueAt = %v, want %v", next, want)
	}
}

func TestNextDueAt_WeekdaySet_NextDayInWeek(t *testing.T) {
	// 月水金、木曜から → 翌日の金曜
	site := &model.Site{Cadence: model.CadenceThreePerWeek}
	thursday := date(2024, time.June, 13)

	next, ok := NextDueAt(site, thursday)
	if !ok {
		t.Fatal("次回日時を返すべき")
	}
	if next.Weekday() != time.Friday {
		t.Errorf("次回曜日 = %v, want Friday", next.Weekday())
	}
	if next.Day() != 14 {
		t.Errorf("次回日 = %d, want 14", next.Day())
	}
	if next.Hour() != 9 || next.Minute() != 0 {
		t.Errorf("投稿時刻未設定時は09:00であるべき: %02d:%02d", next.Hour(), next.Minute())
	}
}

func TestNextDueAt_WeekdaySet_WrapsToNextWeek(t *testing.T) {
	// 週1回月曜、月曜08:00から → 今日は「厳密に大きい」を満たさず翌週月曜
	site := &model.Site{
		Cadence:  model.CadenceWeekly,
		PostDays: []string{"monday"},
		PostTime: "09:00",
	}
	monday := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)

	next, ok := NextDueAt(site, monday)
	if !ok {
		t.Fatal("次回日時を返すべき")
	}
	want := time.Date(2024, time.June, 17, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextDueAt = %v, want 翌週月曜 %v", next, want)
	}
}

func TestNextDueAt_WeekdaySet_WrapFromSaturday(t *testing.T) {
	// 月水金、土曜から → 翌週月曜（2日後）
	site := &model.Site{Cadence: model.CadenceThreePerWeek}
	saturday := date(2024, time.June, 15)

	next, ok := NextDueAt(site, saturday)
	if !ok {
		t.Fatal("次回日時を返すべき")
	}
	if next.Weekday() != time.Monday || next.Day() != 17 {
		t.Errorf("NextDueAt = %v, want 6/17(月)", next)
	}
}

func TestNextDueAt_Monthly(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceMonthly, PostTime: "10:00"}
	from := date(2024, time.June, 15)

	next, ok := NextDueAt(site, from)
	if !ok {
		t.Fatal("monthlyは常に次回日時を返すべき")
	}
	want := time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextDueAt = %v, want %v", next, want)
	}
}

func TestNextDueAt_MonthlyYearRollover(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceMonthly}
	from := date(2024, time.December, 10)

	next, ok := NextDueAt(site, from)
	if !ok {
		t.Fatal("次回日時を返すべき")
	}
	if next.Year() != 2025 || next.Month() != time.January || next.Day() != 1 {
		t.Errorf("12月からの次回は翌年1月1日であるべき: %v", next)
	}
}

func TestNextDueAt_UnknownCadence(t *testing.T) {
	site := &model.Site{Cadence: model.Cadence("hourly")}
	if _, ok := NextDueAt(site, date(2024, time.June, 10)); ok {
		t.Error("空の曜日セットに解決される頻度はok=falseを返すべき")
	}
}

func TestNextDueAt_MalformedPostTimeFallsBack(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceDaily, PostTime: "noon"}
	next, ok := NextDueAt(site, date(2024, time.June, 10))
	if !ok {
		t.Fatal("次回日時を返すべき")
	}
	if next.Hour() != 9 || next.Minute() != 0 {
		t.Errorf("パース不能な投稿時刻は09:00にフォールバックすべき: %02d:%02d", next.Hour(), next.Minute())
	}
}

// --- NextDueTimes ---

func TestNextDueTimes_CountAndOrder(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceThreePerWeek} // 月水金
	monday := date(2024, time.June, 10)

	var got []time.Time
	for due := range NextDueTimes(site, monday, 4) {
		got = append(got, due)
	}

	if len(got) != 4 {
		t.Fatalf("生成された件数 = %d, want 4", len(got))
	}

	wantDays := []int{12, 14, 17, 19} // 水・金・翌週月・水
	for i, due := range got {
		if due.Day() != wantDays[i] {
			t.Errorf("got[%d] = 6/%d, want 6/%d", i, due.Day(), wantDays[i])
		}
	}

	// 昇順であること
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Errorf("日時は昇順であるべき: got[%d]=%v, got[%d]=%v", i-1, got[i-1], i, got[i])
		}
	}
}

func TestNextDueTimes_StopsEarlyOnUnknownCadence(t *testing.T) {
	site := &model.Site{Cadence: model.Cadence("hourly")}
	count := 0
	for range NextDueTimes(site, date(2024, time.June, 10), 5) {
		count++
	}
	if count != 0 {
		t.Errorf("計算不能な頻度では0件で打ち切るべき: got %d", count)
	}
}

func TestNextDueTimes_Restartable(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceDaily}
	seq := NextDueTimes(site, date(2024, time.June, 10), 3)

	var first, second []time.Time
	for due := range seq {
		first = append(first, due)
	}
	for due := range seq {
		second = append(second, due)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("再走査で同じ件数を返すべき: %d, %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("再走査で同じ日時を返すべき: %v != %v", first[i], second[i])
		}
	}
}

func TestNextDueTimes_PartialIteration(t *testing.T) {
	site := &model.Site{Cadence: model.CadenceDaily}
	count := 0
	for range NextDueTimes(site, date(2024, time.June, 10), 10) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("途中でbreakできるべき: got %d", count)
	}
}
