package season

import "errors"

// Season ドメインのエラー定義
var (
	ErrSeasonNotFound      = errors.New("シーズンが見つかりません")
	ErrPropertyIDRequired  = errors.New("施設IDは必須です")
	ErrSeasonDatesRequired = errors.New("デフォルト以外のシーズンには開始日と終了日が必須です")
	ErrInvalidPrice        = errors.New("宿泊料金は0以上である必要があります")
	// ErrDefaultSeasonMissing はデフォルトシーズン未設定の設定不備を表す
	// 実行時の失敗として握りつぶさず、呼び出し元に伝播させる
	ErrDefaultSeasonMissing = errors.New("デフォルトシーズンが設定されていません")
	ErrEmptyStayRange       = errors.New("宿泊期間が空です")
)
