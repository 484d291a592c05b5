package season

import "time"

// MatchesDate はシーズンが指定日にマッチするかを返す
// デフォルトシーズンは純粋なフォールバックであり、日付には決してマッチしない
func (s *Season) MatchesDate(date time.Time) bool {
	if s.IsDefault || s.StartDate == nil || s.EndDate == nil {
		return false
	}
	d := toCalendarDay(date)
	start := toCalendarDay(*s.StartDate)
	end := toCalendarDay(*s.EndDate)

	if s.IsRecurring {
		// 月日パターンを判定対象の年に写像する
		start = time.Date(d.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		end = time.Date(d.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
		if start.After(end) {
			// 年をまたぐ窓: 判定日が開始月以降なら終了を翌年へ、
			// そうでなければ開始を前年へずらしてから包含判定する
			if d.Month() >= start.Month() {
				end = end.AddDate(1, 0, 0)
			} else {
				start = start.AddDate(-1, 0, 0)
			}
		}
	}
	return !d.Before(start) && !d.After(end)
}

// ResolveForDate は指定日に適用されるシーズンを返す
// マッチするシーズンのうち Priority が最も高いものを選び、
// どれもマッチしなければデフォルトシーズンを返す
// デフォルトシーズンが存在しない場合は設定不備として ErrDefaultSeasonMissing を返す
func ResolveForDate(seasons []*Season, date time.Time) (*Season, error) {
	var matched *Season
	for _, s := range seasons {
		if !s.MatchesDate(date) {
			continue
		}
		if matched == nil || betterMatch(s, matched) {
			matched = s
		}
	}
	if matched != nil {
		return matched, nil
	}
	for _, s := range seasons {
		if s.IsDefault {
			return s, nil
		}
	}
	return nil, ErrDefaultSeasonMissing
}

// DominantSeason は半開区間 [start, end) の各暦日を解決し、
// 最も多くの泊数を占めるシーズンを返す
// 泊数が同数の場合は Priority の高い方、それも同じなら ID の小さい方を選ぶ
func DominantSeason(seasons []*Season, start, end time.Time) (*Season, error) {
	from := toCalendarDay(start)
	to := toCalendarDay(end)
	if !from.Before(to) {
		return nil, ErrEmptyStayRange
	}

	nights := make(map[string]int)
	byID := make(map[string]*Season)
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		s, err := ResolveForDate(seasons, d)
		if err != nil {
			return nil, err
		}
		nights[s.ID]++
		byID[s.ID] = s
	}

	var dominant *Season
	var dominantNights int
	for id, n := range nights {
		s := byID[id]
		switch {
		case dominant == nil, n > dominantNights:
			dominant, dominantNights = s, n
		case n == dominantNights && betterMatch(s, dominant):
			dominant = s
		}
	}
	return dominant, nil
}

// betterMatch は決定的なタイブレーク: Priority 降順、次に ID 昇順
func betterMatch(a, b *Season) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}
