package pricing

import (
	"fmt"
	"time"
)

// CalculationError は料金計算の予期しない失敗を表す業務エラー
// 施設と日程のコンテキストを保持し、リトライ対象にはならない
type CalculationError struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
	Err        error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("料金計算に失敗 (施設=%s, %s〜%s): %v",
		e.PropertyID, e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"), e.Err)
}

func (e *CalculationError) Unwrap() error { return e.Err }

// BusinessError はリトライ対象外の業務エラーであることを示す
func (e *CalculationError) BusinessError() bool { return true }
