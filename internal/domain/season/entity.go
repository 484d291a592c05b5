package season

import "time"

// Season は施設の料金・ポリシー期間を表すエンティティ
// デフォルトシーズンは日付にマッチしないフォールバック専用で、施設ごとに必ず1つ存在する
type Season struct {
	ID         string
	PropertyID string
	Name       string
	StartDate  *time.Time // デフォルトシーズンでは nil
	EndDate    *time.Time
	IsDefault  bool
	// IsRecurring が true の場合、StartDate/EndDate は月日パターンとして毎年繰り返される
	// （年をまたぐ窓も許容する）
	IsRecurring             bool
	Priority                int // 複数マッチ時のタイブレーク（大きい方が勝つ）
	MinStay                 int // 最低宿泊数（0 は設定値のデフォルトを使用）
	MinPersons              int
	IsFullSeasonBookingOnly bool
	PricePerNight           int64          // 最小通貨単位
	CheckInDays             []time.Weekday // 空ならチェックイン曜日の制限なし
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Validate はシーズンの検証を行う
func (s *Season) Validate() error {
	if s.PropertyID == "" {
		return ErrPropertyIDRequired
	}
	if !s.IsDefault && (s.StartDate == nil || s.EndDate == nil) {
		return ErrSeasonDatesRequired
	}
	if s.PricePerNight < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// DurationDays はシーズン期間の日数を返す（デフォルトシーズンは 0）
// 期間は両端の日を含むため、開始日と終了日が同じなら 1 を返す
// （MatchesDate の包含判定と同じ規約。6/1〜8/31 なら 92 日）
func (s *Season) DurationDays() int {
	if s.StartDate == nil || s.EndDate == nil {
		return 0
	}
	start := toCalendarDay(*s.StartDate)
	end := toCalendarDay(*s.EndDate)
	if s.IsRecurring && end.Before(start) {
		// 年をまたぐ窓（例: 12/20〜1/5）
		end = end.AddDate(1, 0, 0)
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// AllowsCheckInOn はチェックイン曜日の制限を満たすかを返す
func (s *Season) AllowsCheckInOn(day time.Weekday) bool {
	if len(s.CheckInDays) == 0 {
		return true
	}
	for _, d := range s.CheckInDays {
		if d == day {
			return true
		}
	}
	return false
}

// toCalendarDay は時刻とタイムゾーンを落とした暦日（UTC 0時）に正規化する
// シーズンの包含判定はすべて暦日単位で行う
func toCalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
