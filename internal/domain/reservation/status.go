package reservation

import (
	"fmt"
	"time"
)

// Status は予約のライフサイクル状態を表す
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// transitions は許可された状態遷移の静的テーブル
// ここに無い遷移は状態書き込みの時点で拒否され、近い状態への読み替えは行わない
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusCheckedOut, StatusConfirmed},
	StatusCheckedOut: {StatusCheckedIn},
	StatusCancelled:  {StatusPending},
	StatusNoShow:     {StatusPending, StatusConfirmed},
}

// IsValid は既知の状態かを返す
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CanTransitionTo は遷移テーブル上で target への遷移が許可されているかを返す
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo は状態遷移を実行する
// 不正な遷移は ErrInvalidStatusTransition を遷移元・遷移先付きで返す
func (r *Reservation) TransitionTo(target Status) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: 不明な状態 %q", ErrInvalidStatusTransition, target)
	}
	if !r.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s から %s へは遷移できません", ErrInvalidStatusTransition, r.Status, target)
	}
	r.Status = target
	r.UpdatedAt = time.Now()
	return nil
}

// IsActive は在庫を占有する状態（キャンセル以外）かを返す
func (s Status) IsActive() bool {
	return s != StatusCancelled
}
