package customer

import "errors"

// Customer ドメインのエラー定義
var (
	ErrCustomerNotFound = errors.New("顧客が見つかりません")
	ErrNameRequired     = errors.New("顧客名は必須です")
	ErrEmailRequired    = errors.New("メールアドレスは必須です")
	ErrInvalidEmail     = errors.New("メールアドレスの形式が不正です")
)
