package event

import (
	"context"
	"time"
)

// Event はドメインイベントを表すインターフェース
type Event interface {
	// EventName はイベントの識別名を返す
	EventName() string
	// AggregateID はイベントの発生源となった集約のIDを返す
	AggregateID() string
	// OccurredAt はイベントの発生時刻を返す
	OccurredAt() time.Time
}

// Publisher はドメインイベントを外部のリスナー（請求書発行・通知など）へ配信する
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// ReservationCreated は予約作成の成功を通知するイベント
// 予約作成トランザクションのコミット直前に発行される
type ReservationCreated struct {
	ReservationID string    `json:"reservation_id"`
	Code          string    `json:"code"`
	PropertyID    string    `json:"property_id"`
	CustomerID    string    `json:"customer_id"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	TotalPrice    int64     `json:"total_price"`
	Currency      string    `json:"currency"`
	At            time.Time `json:"at"`
}

func (e ReservationCreated) EventName() string     { return "reservation.created" }
func (e ReservationCreated) AggregateID() string   { return e.ReservationID }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }
