package reservation

import (
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/customer"
)

// Reservation は予約エンティティを表す
// 宿泊区間は半開区間 [CheckIn, CheckOut) として扱う
type Reservation struct {
	ID         string
	Code       string // 人間可読の一意な予約コード
	PropertyID string
	CustomerID string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     Status
	TotalPrice int64
	Currency   string
	Guests     int
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// 集約の読み込み時に設定される
	Customer *customer.Customer
	Ledger   *Ledger
}

// Ledger は予約に紐づく内部勘定（フォリオ）を表す
// 予約と同一トランザクションで作成され、予約に先行して存在することはない
type Ledger struct {
	ID            string
	ReservationID string
	Currency      string
	CreatedAt     time.Time
	Items         []*LineItem
}

// LineItemKind は明細の種別を表す
type LineItemKind string

const (
	LineItemAccommodation LineItemKind = "accommodation"
	LineItemService       LineItemKind = "service"
)

// LineItem は勘定に記帳される個々の明細を表す
type LineItem struct {
	ID          string
	LedgerID    string
	Kind        LineItemKind
	ServiceID   *string // 追加サービス明細の場合のみ
	Description string
	Quantity    int
	UnitPrice   int64
	Total       int64
}

// NewReservation は新しい予約を作成する（初期状態は Pending）
func NewReservation(propertyID, customerID, code string, checkIn, checkOut time.Time, totalPrice int64, currency string, guests int, notes string) *Reservation {
	now := time.Now()
	return &Reservation{
		Code:       code,
		PropertyID: propertyID,
		CustomerID: customerID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     StatusPending,
		TotalPrice: totalPrice,
		Currency:   currency,
		Guests:     guests,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Nights は暦日単位の泊数を返す
func (r *Reservation) Nights() int {
	return NightsBetween(r.CheckIn, r.CheckOut)
}

// NightsBetween は両日付の暦日開始時点の差を丸一日単位で返す
func NightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}

// Overlaps は半開区間同士の重なり判定を行う
// existing.start < requested.end && existing.end > requested.start
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.CheckIn.Before(end) && r.CheckOut.After(start)
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.PropertyID == "" {
		return ErrPropertyIDRequired
	}
	if r.CustomerID == "" {
		return ErrCustomerIDRequired
	}
	if !r.CheckOut.After(r.CheckIn) {
		return ErrCheckOutNotAfterCheckIn
	}
	if r.TotalPrice < 0 {
		return ErrInvalidTotalPrice
	}
	if r.Guests < 0 {
		return ErrInvalidGuestCount
	}
	return nil
}
