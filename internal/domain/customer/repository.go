package customer

import (
	"context"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

// Repository は顧客リポジトリのインターフェース
// 検索と更新は予約作成トランザクションの内側で実行される
type Repository interface {
	// GetByEmail は正規化済みメールアドレスから顧客を取得する
	GetByEmail(ctx context.Context, tx transaction.Tx, email string) (*Customer, error)

	// Create は新しい顧客を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, c *Customer) error

	// Update は顧客を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, c *Customer) error
}
