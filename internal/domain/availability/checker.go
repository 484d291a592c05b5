package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

// ReservationCounter は既存予約との重なりを数えるインターフェース
type ReservationCounter interface {
	CountOverlapping(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error)
}

// BlackoutCounter は提供停止期間との交差を数えるインターフェース
type BlackoutCounter interface {
	CountBlackoutsIntersecting(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error)
}

// Result は空室判定の結果
// 単なる真偽値ではなく競合の種類を呼び出し元に伝える
type Result struct {
	Available                  bool
	HasOverlappingReservations bool
	HasBlackout                bool
}

// Checker は日付範囲の競合を検出する
// 空室であるためには (a) キャンセル以外の既存予約との重なりが無く、
// (b) 提供停止期間との交差も無いことの両方が必要
type Checker struct {
	reservations ReservationCounter
	blackouts    BlackoutCounter
}

// NewChecker は新しい Checker を作成する
func NewChecker(reservations ReservationCounter, blackouts BlackoutCounter) *Checker {
	return &Checker{reservations: reservations, blackouts: blackouts}
}

// Check は半開区間 [start, end) の空室判定を行う
// tx を渡すと予約を挿入するトランザクションの内側で再判定でき、
// 事前チェックと挿入の間の競合ウィンドウを閉じられる
// 予約同士はチェックイン/アウト時刻込みのタイムスタンプで比較するが、
// 提供停止期間は暦日で管理されるため、判定前に区間を暦日に正規化する
// （チェックアウト日は滞在に含まれず、当日開始の停止期間とは競合しない）
func (c *Checker) Check(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (*Result, error) {
	overlapping, err := c.reservations.CountOverlapping(ctx, tx, propertyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("既存予約の重なり判定に失敗: %w", err)
	}
	blackouts, err := c.blackouts.CountBlackoutsIntersecting(ctx, tx, propertyID, toCalendarDay(start), toCalendarDay(end))
	if err != nil {
		return nil, fmt.Errorf("提供停止期間の判定に失敗: %w", err)
	}
	res := &Result{
		HasOverlappingReservations: overlapping > 0,
		HasBlackout:                blackouts > 0,
	}
	res.Available = !res.HasOverlappingReservations && !res.HasBlackout
	return res, nil
}

// toCalendarDay は時刻とタイムゾーンを落とした暦日（UTC 0時）に正規化する
func toCalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
