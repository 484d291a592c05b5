package season

import "context"

// Repository はシーズンリポジトリのインターフェース
// シーズンは運用者が外部で管理し、コアは読み取りのみ行う
type Repository interface {
	// GetByPropertyID は施設の全シーズンを取得する（デフォルトシーズンを含む）
	GetByPropertyID(ctx context.Context, propertyID string) ([]*Season, error)
}
