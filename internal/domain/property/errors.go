package property

import "errors"

// Property ドメインのエラー定義
var (
	ErrPropertyNotFound     = errors.New("施設が見つかりません")
	ErrPropertyNameRequired = errors.New("施設名は必須です")
	ErrInvalidBasePrice     = errors.New("基準宿泊料金は0以上である必要があります")
	ErrServiceNotFound      = errors.New("追加サービスが見つかりません")
)
