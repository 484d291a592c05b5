package reservation

import (
	"context"
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は予約と勘定・明細を同一トランザクションで作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetByID は予約を顧客・勘定・明細込みで取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByCode は予約コードから予約を取得する
	GetByCode(ctx context.Context, code string) (*Reservation, error)

	// CountOverlapping は半開区間 [start, end) と重なるキャンセル以外の予約数を返す
	// tx が nil でなければ施設行をロックした上で同一トランザクション内で数える
	CountOverlapping(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error)

	// CodeExists は予約コードが既に使用されているかを返す
	CodeExists(ctx context.Context, tx transaction.Tx, code string) (bool, error)

	// UpdateStatus は状態遷移後の予約を書き込む（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetStalePending は一定時間を超えて Pending のままの予約を取得する
	GetStalePending(ctx context.Context, olderThan time.Duration) ([]*Reservation, error)

	// CountByStatus は状態別の予約数を返す
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
