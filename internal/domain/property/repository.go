package property

import (
	"context"
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

// Repository は施設リポジトリのインターフェース
type Repository interface {
	// GetByID はIDから施設を取得する
	GetByID(ctx context.Context, id string) (*Property, error)

	// GetServices は施設の追加サービス一覧を取得する（非アクティブを含む）
	GetServices(ctx context.Context, propertyID string) ([]*Service, error)

	// CountBlackoutsIntersecting は半開区間 [start, end) と交差する提供停止期間の数を返す
	// tx が nil でなければ同一トランザクション内で読み取る
	CountBlackoutsIntersecting(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error)
}
