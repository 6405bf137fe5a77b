package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/postflow/internal/model"
)

func TestParseWeekday_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"monday", "Monday", "MONDAY", " monday "} {
		d, err := ParseWeekday(name)
		if err != nil {
			t.Fatalf("ParseWeekday(%q) がエラーを返した: %v", name, err)
		}
		if d != time.Monday {
			t.Errorf("ParseWeekday(%q) = %v, want Monday", name, d)
		}
	}
}

func TestParseWeekday_Unknown(t *testing.T) {
	if _, err := ParseWeekday("funday"); err == nil {
		t.Error("未知の曜日名はエラーを返すべき")
	}
}

func TestValidateDays_ValidSets(t *testing.T) {
	tests := []struct {
		cadence model.Cadence
		days    []string
	}{
		{model.CadenceThreePerWeek, []string{"monday", "wednesday", "friday"}},
		{model.CadenceThreePerWeek, []string{"Tuesday", "Thursday", "Saturday"}},
		{model.CadenceFivePerWeek, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}},
		{model.CadenceWeekly, []string{"sunday"}},
	}

	for _, tt := range tests {
		if err := ValidateDays(tt.cadence, tt.days); err != nil {
			t.Errorf("ValidateDays(%s, %v) がエラーを返した: %v", tt.cadence, tt.days, err)
		}
	}
}

func TestValidateDays_EmptyIsValid(t *testing.T) {
	// 未指定はデフォルトセットが適用されるため有効
	if err := ValidateDays(model.CadenceThreePerWeek, nil); err != nil {
		t.Errorf("曜日未指定は有効であるべき: %v", err)
	}
}

func TestValidateDays_WrongCount(t *testing.T) {
	err := ValidateDays(model.CadenceThreePerWeek, []string{"monday", "wednesday"})
	if err == nil {
		t.Fatal("three_per_weekに2曜日はエラーを返すべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorを返すべき: %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidPostDays {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidPostDays)
	}
}

func TestValidateDays_UnknownName(t *testing.T) {
	err := ValidateDays(model.CadenceWeekly, []string{"someday"})
	if err == nil {
		t.Error("未知の曜日名はエラーを返すべき")
	}
}

func TestValidateDays_Duplicate(t *testing.T) {
	err := ValidateDays(model.CadenceThreePerWeek, []string{"monday", "monday", "friday"})
	if err == nil {
		t.Error("重複する曜日はエラーを返すべき")
	}
}

func TestValidateDays_DaysForDaily(t *testing.T) {
	// daily/monthlyは曜日指定を受け付けない
	if err := ValidateDays(model.CadenceDaily, []string{"monday"}); err == nil {
		t.Error("dailyへの曜日指定はエラーを返すべき")
	}
	if err := ValidateDays(model.CadenceMonthly, []string{"monday"}); err == nil {
		t.Error("monthlyへの曜日指定はエラーを返すべき")
	}
}

func TestValidateDays_UnknownCadence(t *testing.T) {
	err := ValidateDays(model.Cadence("hourly"), nil)
	if err == nil {
		t.Fatal("未知の頻度はエラーを返すべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorを返すべき: %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCadence {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCadence)
	}
}

func TestResolveDays_Daily(t *testing.T) {
	days := ResolveDays(model.CadenceDaily, nil)
	if len(days) != 7 {
		t.Errorf("dailyの曜日セットは7個であるべき: got %d", len(days))
	}
}

func TestResolveDays_ExplicitSet(t *testing.T) {
	days := ResolveDays(model.CadenceThreePerWeek, []string{"tuesday", "thursday", "saturday"})
	want := []time.Weekday{time.Tuesday, time.Thursday, time.Saturday}
	if len(days) != len(want) {
		t.Fatalf("曜日セットの個数 = %d, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %v, want %v", i, days[i], want[i])
		}
	}
}

func TestResolveDays_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		cadence model.Cadence
		days    []string
		want    []time.Weekday
	}{
		{"個数不足", model.CadenceThreePerWeek, []string{"monday"}, []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{"未知の曜日名", model.CadenceWeekly, []string{"someday"}, []time.Weekday{time.Monday}},
		{"未指定", model.CadenceFivePerWeek, nil, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := ResolveDays(tt.cadence, tt.days)
			if len(days) != len(tt.want) {
				t.Fatalf("曜日セットの個数 = %d, want %d", len(days), len(tt.want))
			}
			for i := range tt.want {
				if days[i] != tt.want[i] {
					t.Errorf("days[%d] = %v, want %v", i, days[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveDays_CardinalityMatchesCadence(t *testing.T) {
	// 有効な明示セットではセットの個数が頻度の要求個数と一致する
	tests := []struct {
		cadence model.Cadence
		days    []string
		want    int
	}{
		{model.CadenceFivePerWeek, []string{"sunday", "monday", "tuesday", "wednesday", "thursday"}, 5},
		{model.CadenceThreePerWeek, []string{"monday", "wednesday", "friday"}, 3},
		{model.CadenceWeekly, []string{"friday"}, 1},
	}
	for _, tt := range tests {
		if got := len(ResolveDays(tt.cadence, tt.days)); got != tt.want {
			t.Errorf("ResolveDays(%s) の個数 = %d, want %d", tt.cadence, got, tt.want)
		}
	}
}

func TestResolveDays_MonthlyAndUnknown(t *testing.T) {
	if days := ResolveDays(model.CadenceMonthly, nil); len(days) != 0 {
		t.Errorf("monthlyの曜日セットは空であるべき: got %v", days)
	}
	if days := ResolveDays(model.Cadence("hourly"), nil); len(days) != 0 {
		t.Errorf("未知の頻度の曜日セットは空であるべき: got %v", days)
	}
}
