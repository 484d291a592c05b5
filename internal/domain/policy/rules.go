package policy

import (
	"fmt"
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/season"
)

// MinStayRule は最低宿泊数を検証する
// シーズンの MinStay が未設定（0）の場合は DefaultMinStay を適用する
type MinStayRule struct {
	DefaultMinStay int
}

func (r *MinStayRule) Name() string { return "min_stay" }

func (r *MinStayRule) Validate(stay Stay, s *season.Season, guests int) error {
	required := r.DefaultMinStay
	if s != nil && s.MinStay > 0 {
		required = s.MinStay
	}
	if required <= 0 {
		return nil
	}
	if nights := stay.Nights(); nights < required {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("最低%d泊からの予約が必要です（指定: %d泊）", required, nights),
		}
	}
	return nil
}

// MinPersonsRule は最低宿泊人数を検証する
type MinPersonsRule struct{}

func (r *MinPersonsRule) Name() string { return "min_persons" }

func (r *MinPersonsRule) Validate(stay Stay, s *season.Season, guests int) error {
	if s == nil || s.MinPersons <= 0 {
		return nil
	}
	if guests < s.MinPersons {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("最低%d名からの予約が必要です（指定: %d名）", s.MinPersons, guests),
		}
	}
	return nil
}

// FullSeasonBookingRule はシーズン一括予約のみ許可するシーズンを検証する
// 予約の日数がシーズン期間と完全に一致し、開始日（月日）もシーズン開始日と一致すること
type FullSeasonBookingRule struct{}

func (r *FullSeasonBookingRule) Name() string { return "full_season_booking" }

func (r *FullSeasonBookingRule) Validate(stay Stay, s *season.Season, guests int) error {
	if s == nil || !s.IsFullSeasonBookingOnly || s.StartDate == nil {
		return nil
	}
	required := s.DurationDays()
	if nights := stay.Nights(); nights != required {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("このシーズンは%d泊の一括予約のみ受け付けています（指定: %d泊）", required, nights),
		}
	}
	start := s.StartDate
	if stay.CheckIn.Month() != start.Month() || stay.CheckIn.Day() != start.Day() {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("このシーズンの予約開始日は%d月%d日に固定されています", start.Month(), start.Day()),
		}
	}
	return nil
}

// CheckInDayRule はチェックイン可能な曜日の制限を検証する
type CheckInDayRule struct{}

func (r *CheckInDayRule) Name() string { return "check_in_day" }

func (r *CheckInDayRule) Validate(stay Stay, s *season.Season, guests int) error {
	if s == nil || len(s.CheckInDays) == 0 {
		return nil
	}
	if !s.AllowsCheckInOn(stay.CheckIn.Weekday()) {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("このシーズンは %s のチェックインを受け付けていません（許可曜日: %s）", weekdayName(stay.CheckIn.Weekday()), weekdayNames(s.CheckInDays)),
		}
	}
	return nil
}

var jaWeekdays = [...]string{"日曜", "月曜", "火曜", "水曜", "木曜", "金曜", "土曜"}

func weekdayName(d time.Weekday) string {
	return jaWeekdays[int(d)]
}

func weekdayNames(days []time.Weekday) string {
	out := ""
	for i, d := range days {
		if i > 0 {
			out += "・"
		}
		out += weekdayName(d)
	}
	return out
}
