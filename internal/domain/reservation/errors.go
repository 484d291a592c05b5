package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound     = errors.New("予約が見つかりません")
	ErrPropertyIDRequired      = errors.New("施設IDは必須です")
	ErrCustomerIDRequired      = errors.New("顧客IDは必須です")
	ErrCheckOutNotAfterCheckIn = errors.New("チェックアウトはチェックインより後である必要があります")
	ErrInvalidTotalPrice       = errors.New("合計金額は0以上である必要があります")
	ErrInvalidGuestCount       = errors.New("宿泊人数は0以上である必要があります")
	ErrInvalidStatusTransition = errors.New("不正な状態遷移です")
	ErrCodeAlreadyExists       = errors.New("予約コードが既に使用されています")
)

// ValidationError は入力不備を表す業務エラー
// 問題のある項目名を保持し、リトライ対象にはならない
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (項目: %s)", e.Message, strings.Join(e.Fields, ", "))
}

// BusinessError はリトライ対象外の業務エラーであることを示す
func (e *ValidationError) BusinessError() bool { return true }

// NewValidationError は入力検証エラーを作成する
func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

// DatesUnavailableError は日程の競合を表す業務エラー
// 既存予約との重なりと提供停止期間の両方のフラグを保持する
type DatesUnavailableError struct {
	PropertyID                 string
	CheckIn                    time.Time
	CheckOut                   time.Time
	HasOverlappingReservations bool
	HasBlackout                bool
}

func (e *DatesUnavailableError) Error() string {
	reasons := make([]string, 0, 2)
	if e.HasOverlappingReservations {
		reasons = append(reasons, "既存予約と重なっています")
	}
	if e.HasBlackout {
		reasons = append(reasons, "提供停止期間と重なっています")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "指定日程は予約できません")
	}
	return fmt.Sprintf("%s〜%s は予約できません: %s",
		e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"), strings.Join(reasons, "、"))
}

// BusinessError はリトライ対象外の業務エラーであることを示す
// 日程競合は確定的な結果であり、リトライで解消するものではない
func (e *DatesUnavailableError) BusinessError() bool { return true }
