package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/hrnicek/rezio-cz-sub000/internal/config"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/availability"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/customer"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/event"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/policy"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/pricing"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/property"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/season"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
	redislock "github.com/hrnicek/rezio-cz-sub000/internal/infrastructure/redis"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/logger"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/metrics"
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/retry"
)

// ReservationService は予約作成ワークフローを調停するアプリケーションサービス
type ReservationService struct {
	txManager       transaction.Manager
	propertyRepo    property.Repository
	seasonRepo      season.Repository
	customerRepo    customer.Repository
	reservationRepo reservation.Repository
	checker         *availability.Checker
	rules           *policy.Chain
	publisher       event.Publisher
	executor        *retry.Executor
	lockManager     *redislock.LockManager // nil 可（単一プロセス構成）
	booking         config.BookingConfig
	loc             *time.Location
}

// NewReservationService は新しい ReservationService を作成する
func NewReservationService(
	txManager transaction.Manager,
	propertyRepo property.Repository,
	seasonRepo season.Repository,
	customerRepo customer.Repository,
	reservationRepo reservation.Repository,
	checker *availability.Checker,
	rules *policy.Chain,
	publisher event.Publisher,
	executor *retry.Executor,
	lockManager *redislock.LockManager,
	booking config.BookingConfig,
) (*ReservationService, error) {
	loc, err := booking.Location()
	if err != nil {
		return nil, err
	}
	return &ReservationService{
		txManager:       txManager,
		propertyRepo:    propertyRepo,
		seasonRepo:      seasonRepo,
		customerRepo:    customerRepo,
		reservationRepo: reservationRepo,
		checker:         checker,
		rules:           rules,
		publisher:       publisher,
		executor:        executor,
		lockManager:     lockManager,
		booking:         booking,
		loc:             loc,
	}, nil
}

// CreateReservationInput は予約作成リクエスト
type CreateReservationInput struct {
	PropertyID      string
	CheckIn         string // "2006-01-02"
	CheckOut        string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCompany string
	CustomerTaxID   string
	Services        []pricing.ServiceSelection
	Guests          int
	Notes           string
}

// CreateReservation は検証・料金計算・空室確認・ポリシー検証を経て
// 予約・勘定・明細を1つのトランザクションで永続化する
// 一過性の障害は有界リトライで回復し、業務エラーは即座に返す
func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	// 入力不備はトランザクション外で即座に弾き、リトライもしない
	if err := s.validateInput(input); err != nil {
		s.logFailure(input, err)
		return nil, err
	}
	checkIn, checkOut, err := s.parseStayDates(input.CheckIn, input.CheckOut)
	if err != nil {
		s.logFailure(input, err)
		return nil, err
	}

	// 同一施設への競合リクエストを間引く分散ロック（任意）
	// 正しさはトランザクション内の再チェックと行ロックが担保する
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, "property:"+input.PropertyID, 10*time.Second, 3, 100*time.Millisecond)
		if err != nil && !errors.Is(err, redislock.ErrLockNotAcquired) {
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		if lock != nil {
			defer lock.Release(ctx)
		}
	}

	start := time.Now()
	attempts := 0
	var created *reservation.Reservation
	err = s.executor.Do(ctx, "reservation.create", func(ctx context.Context) error {
		attempts++
		res, err := s.attemptCreate(ctx, input, checkIn, checkOut)
		if err != nil {
			return err
		}
		created = res
		return nil
	},
		zap.String("property_id", input.PropertyID),
		zap.String("customer_email", customer.NormalizeEmail(input.CustomerEmail)),
		zap.String("check_in", input.CheckIn),
		zap.String("check_out", input.CheckOut),
	)
	recordOutcome(err, attempts, time.Since(start))
	if err != nil {
		s.logFailure(input, err)
		return nil, err
	}

	// 顧客・勘定・明細込みで返す
	return s.reservationRepo.GetByID(ctx, created.ID)
}

// attemptCreate は1試行分の予約作成をアトミックなトランザクションで実行する
// 途中のどの失敗でも全体がロールバックされ、部分的な書き込みは残らない
func (s *ReservationService) attemptCreate(ctx context.Context, input CreateReservationInput, checkIn, checkOut time.Time) (*reservation.Reservation, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 顧客はメールアドレスで検索し、なければ作成、あれば空でない項目だけ反映
	cust, err := s.findOrMergeCustomer(ctx, tx, input)
	if err != nil {
		return nil, err
	}

	// 事前チェックと挿入の間の競合ウィンドウを閉じるため、
	// 空室判定は挿入と同じトランザクション内で行う
	avail, err := s.checker.Check(ctx, tx, input.PropertyID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, &reservation.DatesUnavailableError{
			PropertyID:                 input.PropertyID,
			CheckIn:                    checkIn,
			CheckOut:                   checkOut,
			HasOverlappingReservations: avail.HasOverlappingReservations,
			HasBlackout:                avail.HasBlackout,
		}
	}

	seasons, err := s.seasonRepo.GetByPropertyID(ctx, input.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("シーズン取得に失敗: %w", err)
	}
	dominant, err := season.DominantSeason(seasons, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	// ポリシー違反はロールバックし、リトライしない
	stay := policy.Stay{CheckIn: checkIn, CheckOut: checkOut}
	if err := s.rules.Validate(stay, dominant, input.Guests); err != nil {
		return nil, err
	}

	prop, err := s.propertyRepo.GetByID(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	services, err := s.propertyRepo.GetServices(ctx, input.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("追加サービス取得に失敗: %w", err)
	}
	breakdown, err := pricing.Calculate(prop, seasons, services, input.Services, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	code, err := s.generateUniqueCode(ctx, tx)
	if err != nil {
		return nil, err
	}

	res := reservation.NewReservation(input.PropertyID, cust.ID, code, checkIn, checkOut,
		breakdown.Total, s.booking.Currency, input.Guests, input.Notes)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	res.Ledger = buildLedger(res, breakdown)
	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, err
	}

	// イベント発行はコミット直前の最終ステップ
	if s.publisher != nil {
		evt := event.ReservationCreated{
			ReservationID: res.ID,
			Code:          res.Code,
			PropertyID:    res.PropertyID,
			CustomerID:    res.CustomerID,
			CheckIn:       res.CheckIn,
			CheckOut:      res.CheckOut,
			TotalPrice:    res.TotalPrice,
			Currency:      res.Currency,
			At:            time.Now(),
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			return nil, fmt.Errorf("予約作成イベントの発行に失敗: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("予約を作成",
		zap.String("reservation_id", res.ID),
		zap.String("code", res.Code),
		zap.String("property_id", res.PropertyID),
		zap.Int64("total_price", res.TotalPrice),
	)
	return res, nil
}

func (s *ReservationService) validateInput(input CreateReservationInput) error {
	var fields []string
	if input.PropertyID == "" {
		fields = append(fields, "property_id")
	}
	if input.CheckIn == "" {
		fields = append(fields, "check_in")
	}
	if input.CheckOut == "" {
		fields = append(fields, "check_out")
	}
	if input.CustomerName == "" {
		fields = append(fields, "customer_name")
	}
	if input.CustomerEmail == "" {
		fields = append(fields, "customer_email")
	}
	if input.Guests < 0 {
		fields = append(fields, "guests")
	}
	if len(fields) > 0 {
		return reservation.NewValidationError("必須項目が不足しています", fields...)
	}
	for _, sel := range input.Services {
		if sel.ServiceID == "" {
			return reservation.NewValidationError("追加サービスのIDが不正です", "services")
		}
		if sel.Quantity < 0 {
			return reservation.NewValidationError("追加サービスの数量が不正です", "services")
		}
	}
	return nil
}

// parseStayDates は日付文字列を設定されたチェックイン/アウト時刻・タイムゾーンと合成する
func (s *ReservationService) parseStayDates(checkInStr, checkOutStr string) (time.Time, time.Time, error) {
	inDay, err := time.ParseInLocation("2006-01-02", checkInStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, reservation.NewValidationError("チェックイン日の形式が不正です", "check_in")
	}
	outDay, err := time.ParseInLocation("2006-01-02", checkOutStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, reservation.NewValidationError("チェックアウト日の形式が不正です", "check_out")
	}
	checkIn := inDay.Add(s.booking.CheckInTime)
	checkOut := outDay.Add(s.booking.CheckOutTime)

	if !outDay.After(inDay) {
		return time.Time{}, time.Time{}, reservation.NewValidationError("チェックアウトはチェックインより後である必要があります", "check_out")
	}
	earliest := time.Now().In(s.loc).AddDate(0, 0, s.booking.MinLeadDays)
	if checkIn.Before(earliest) {
		return time.Time{}, time.Time{}, reservation.NewValidationError(
			fmt.Sprintf("チェックインは%d日以上先の日付を指定してください", s.booking.MinLeadDays), "check_in")
	}
	return checkIn, checkOut, nil
}

func (s *ReservationService) findOrMergeCustomer(ctx context.Context, tx transaction.Tx, input CreateReservationInput) (*customer.Customer, error) {
	incoming := customer.NewCustomer(input.CustomerName, input.CustomerEmail, input.CustomerPhone, input.CustomerCompany, input.CustomerTaxID)
	if err := incoming.Validate(); err != nil {
		return nil, reservation.NewValidationError(err.Error(), "customer_email")
	}

	existing, err := s.customerRepo.GetByEmail(ctx, tx, incoming.Email)
	if errors.Is(err, customer.ErrCustomerNotFound) {
		if err := s.customerRepo.Create(ctx, tx, incoming); err != nil {
			return nil, fmt.Errorf("顧客作成に失敗: %w", err)
		}
		return incoming, nil
	}
	if err != nil {
		return nil, fmt.Errorf("顧客検索に失敗: %w", err)
	}
	if existing.Merge(incoming) {
		if err := s.customerRepo.Update(ctx, tx, existing); err != nil {
			return nil, fmt.Errorf("顧客更新に失敗: %w", err)
		}
	}
	return existing, nil
}

// codeAlphabet は紛らわしい文字（0/O, 1/I）を除いた予約コード用の文字集合
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 8

// generateUniqueCode は短いランダムコードを生成し、衝突時は生成し直す
// このループはコード空間の広さで実質的に有界であり、外側のリトライ予算は消費しない
func (s *ReservationService) generateUniqueCode(ctx context.Context, tx transaction.Tx) (string, error) {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
		}
		code := string(buf)
		exists, err := s.reservationRepo.CodeExists(ctx, tx, code)
		if err != nil {
			return "", fmt.Errorf("予約コードの確認に失敗: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}

// buildLedger は料金内訳から勘定と明細を組み立てる
// 宿泊分の明細1件に加え、追加サービスごとに明細1件を記帳する
//
// 宿泊明細の UnitPrice は合計を泊数で割った平均単価（端数切り捨て）で、
// 複数シーズンにまたがる滞在では UnitPrice×Quantity が Total と一致しない
// ことがある。金額として正なのは常に Total の方
func buildLedger(res *reservation.Reservation, breakdown *pricing.Breakdown) *reservation.Ledger {
	ledger := &reservation.Ledger{
		Currency:  res.Currency,
		CreatedAt: time.Now(),
	}
	nights := res.Nights()
	var unit int64
	if nights > 0 {
		unit = breakdown.Accommodation / int64(nights)
	}
	ledger.Items = append(ledger.Items, &reservation.LineItem{
		Kind:        reservation.LineItemAccommodation,
		Description: fmt.Sprintf("宿泊料金 %d泊", nights),
		Quantity:    nights,
		UnitPrice:   unit,
		Total:       breakdown.Accommodation,
	})
	for _, d := range breakdown.ServiceDetails {
		serviceID := d.ServiceID
		ledger.Items = append(ledger.Items, &reservation.LineItem{
			Kind:        reservation.LineItemService,
			ServiceID:   &serviceID,
			Description: d.Name,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Total:       d.Total,
		})
	}
	return ledger
}

// recordOutcome は予約作成の結果をメトリクスに記録する
func recordOutcome(err error, attempts int, elapsed time.Duration) {
	m := metrics.Get()
	if m == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case errors.As(err, new(*reservation.ValidationError)):
		status = "validation_error"
	case errors.As(err, new(*reservation.DatesUnavailableError)):
		status = "unavailable"
	case errors.As(err, new(*policy.Violation)):
		status = "policy_violation"
	default:
		status = "error"
	}
	m.ReservationsTotal.WithLabelValues(status).Inc()
	m.ReservationAttempts.Observe(float64(attempts))
	m.ReservationDuration.Observe(elapsed.Seconds())
}

// logFailure は失敗を構造化コンテキスト付きで記録してから伝播させる
func (s *ReservationService) logFailure(input CreateReservationInput, err error) {
	logger.Error("予約作成に失敗",
		zap.String("property_id", input.PropertyID),
		zap.String("customer_email", customer.NormalizeEmail(input.CustomerEmail)),
		zap.String("check_in", input.CheckIn),
		zap.String("check_out", input.CheckOut),
		zap.Error(err),
	)
}
