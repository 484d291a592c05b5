package application

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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
	"github.com/hrnicek/rezio-cz-sub000/internal/pkg/retry"
)

// --- モック ---

type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error   { return m.Called().Error(0) }
func (m *MockTx) Rollback() error { return m.Called().Error(0) }

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*property.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *MockPropertyRepository) GetServices(ctx context.Context, propertyID string) ([]*property.Service, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Service), args.Error(1)
}

func (m *MockPropertyRepository) CountBlackoutsIntersecting(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error) {
	args := m.Called(ctx, tx, propertyID, start, end)
	return args.Int(0), args.Error(1)
}

type MockSeasonRepository struct {
	mock.Mock
}

func (m *MockSeasonRepository) GetByPropertyID(ctx context.Context, propertyID string) ([]*season.Season, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*season.Season), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, tx transaction.Tx, email string) (*customer.Customer, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, tx transaction.Tx, c *customer.Customer) error {
	args := m.Called(ctx, tx, c)
	if args.Error(0) == nil {
		c.ID = "cust-new"
	}
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, tx transaction.Tx, c *customer.Customer) error {
	return m.Called(ctx, tx, c).Error(0)
}

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	if args.Error(0) == nil {
		r.ID = "res-1"
	}
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByCode(ctx context.Context, code string) (*reservation.Reservation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountOverlapping(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error) {
	args := m.Called(ctx, tx, propertyID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) CodeExists(ctx context.Context, tx transaction.Tx, code string) (bool, error) {
	args := m.Called(ctx, tx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	return m.Called(ctx, tx, r).Error(0)
}

func (m *MockReservationRepository) GetStalePending(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[reservation.Status]int), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e event.Event) error {
	return m.Called(ctx, e).Error(0)
}

// --- テストフィクスチャ ---

type serviceFixture struct {
	service         *ReservationService
	txManager       *MockTxManager
	tx              *MockTx
	propertyRepo    *MockPropertyRepository
	seasonRepo      *MockSeasonRepository
	customerRepo    *MockCustomerRepository
	reservationRepo *MockReservationRepository
	publisher       *MockPublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		txManager:       new(MockTxManager),
		tx:              new(MockTx),
		propertyRepo:    new(MockPropertyRepository),
		seasonRepo:      new(MockSeasonRepository),
		customerRepo:    new(MockCustomerRepository),
		reservationRepo: new(MockReservationRepository),
		publisher:       new(MockPublisher),
	}

	checker := availability.NewChecker(f.reservationRepo, f.propertyRepo)
	rules := policy.NewChain(
		&policy.MinStayRule{DefaultMinStay: 1},
		&policy.MinPersonsRule{},
		&policy.FullSeasonBookingRule{},
		&policy.CheckInDayRule{},
	)
	booking := config.BookingConfig{
		DefaultMinStay:   1,
		MinLeadDays:      0,
		CheckInTime:      15 * time.Hour,
		CheckOutTime:     10 * time.Hour,
		Timezone:         "UTC",
		Currency:         "CZK",
		RetryMaxAttempts: 3,
		RetryBaseDelay:   time.Millisecond,
	}

	svc, err := NewReservationService(
		f.txManager, f.propertyRepo, f.seasonRepo, f.customerRepo, f.reservationRepo,
		checker, rules, f.publisher,
		retry.NewExecutor(booking.RetryMaxAttempts, booking.RetryBaseDelay),
		nil, booking,
	)
	require.NoError(t, err)
	f.service = svc
	return f
}

func futureDay(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func validInput() CreateReservationInput {
	return CreateReservationInput{
		PropertyID:    "prop-1",
		CheckIn:       futureDay(30),
		CheckOut:      futureDay(33),
		CustomerName:  "Jan Novák",
		CustomerEmail: "Jan@Example.com",
		Guests:        2,
	}
}

func defaultSeasons() []*season.Season {
	return []*season.Season{
		{ID: "default", PropertyID: "prop-1", IsDefault: true, PricePerNight: 10000},
	}
}

// arrangeHappyPath は作成成功までの協調オブジェクトを一通り期待通りに積む
func (f *serviceFixture) arrangeHappyPath() {
	f.txManager.On("Begin", mock.Anything).Return(f.tx, nil)
	f.tx.On("Commit").Return(nil)
	f.tx.On("Rollback").Return(nil)

	f.customerRepo.On("GetByEmail", mock.Anything, f.tx, "jan@example.com").
		Return(nil, customer.ErrCustomerNotFound)
	f.customerRepo.On("Create", mock.Anything, f.tx, mock.AnythingOfType("*customer.Customer")).
		Return(nil)

	f.reservationRepo.On("CountOverlapping", mock.Anything, f.tx, "prop-1", mock.Anything, mock.Anything).
		Return(0, nil)
	f.propertyRepo.On("CountBlackoutsIntersecting", mock.Anything, f.tx, "prop-1", mock.Anything, mock.Anything).
		Return(0, nil)

	f.seasonRepo.On("GetByPropertyID", mock.Anything, "prop-1").Return(defaultSeasons(), nil)
	f.propertyRepo.On("GetByID", mock.Anything, "prop-1").
		Return(&property.Property{ID: "prop-1", Name: "山荘", PricePerNight: 5000, Currency: "CZK"}, nil)
	f.propertyRepo.On("GetServices", mock.Anything, "prop-1").Return([]*property.Service{}, nil)

	f.reservationRepo.On("CodeExists", mock.Anything, f.tx, mock.AnythingOfType("string")).
		Return(false, nil)
	f.publisher.On("Publish", mock.Anything, mock.AnythingOfType("event.ReservationCreated")).
		Return(nil)
	f.reservationRepo.On("GetByID", mock.Anything, "res-1").
		Return(&reservation.Reservation{ID: "res-1", Code: "ABCD2345", Status: reservation.StatusPending}, nil)
}

func TestReservationService_CreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("成功パス", func(t *testing.T) {
		f := newServiceFixture(t)
		f.arrangeHappyPath()
		f.reservationRepo.On("Create", mock.Anything, f.tx, mock.AnythingOfType("*reservation.Reservation")).
			Run(func(args mock.Arguments) {
				r := args.Get(2).(*reservation.Reservation)
				// デフォルトシーズン 10000 × 3泊
				assert.Equal(t, int64(30000), r.TotalPrice)
				assert.Equal(t, reservation.StatusPending, r.Status)
				assert.Len(t, r.Code, 8)
				require.NotNil(t, r.Ledger)
				require.Len(t, r.Ledger.Items, 1)
				assert.Equal(t, reservation.LineItemAccommodation, r.Ledger.Items[0].Kind)
				assert.Equal(t, int64(30000), r.Ledger.Items[0].Total)
			}).
			Return(nil)

		got, err := f.service.CreateReservation(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, "res-1", got.ID)

		f.tx.AssertCalled(t, "Commit")
		f.publisher.AssertNumberOfCalls(t, "Publish", 1)
		f.customerRepo.AssertCalled(t, "Create", mock.Anything, f.tx, mock.Anything)
	})

	t.Run("入力不備はトランザクションに入らない", func(t *testing.T) {
		f := newServiceFixture(t)
		input := validInput()
		input.PropertyID = ""
		input.CustomerEmail = ""

		_, err := f.service.CreateReservation(ctx, input)
		var vErr *reservation.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "property_id")
		assert.Contains(t, vErr.Fields, "customer_email")
		f.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("チェックアウトがチェックインより後でない", func(t *testing.T) {
		f := newServiceFixture(t)
		input := validInput()
		input.CheckOut = input.CheckIn

		_, err := f.service.CreateReservation(ctx, input)
		var vErr *reservation.ValidationError
		require.ErrorAs(t, err, &vErr)
		f.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("空室なしはロールバックしリトライしない", func(t *testing.T) {
		f := newServiceFixture(t)
		f.txManager.On("Begin", mock.Anything).Return(f.tx, nil)
		f.tx.On("Rollback").Return(nil)
		f.customerRepo.On("GetByEmail", mock.Anything, f.tx, "jan@example.com").
			Return(nil, customer.ErrCustomerNotFound)
		f.customerRepo.On("Create", mock.Anything, f.tx, mock.Anything).Return(nil)
		f.reservationRepo.On("CountOverlapping", mock.Anything, f.tx, "prop-1", mock.Anything, mock.Anything).
			Return(1, nil)
		f.propertyRepo.On("CountBlackoutsIntersecting", mock.Anything, f.tx, "prop-1", mock.Anything, mock.Anything).
			Return(0, nil)

		_, err := f.service.CreateReservation(ctx, validInput())
		var dErr *reservation.DatesUnavailableError
		require.ErrorAs(t, err, &dErr)
		assert.True(t, dErr.HasOverlappingReservations)
		assert.False(t, dErr.HasBlackout)

		// 業務エラーなので1試行のみ
		f.txManager.AssertNumberOfCalls(t, "Begin", 1)
		f.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("ポリシー違反はロールバックしリトライしない", func(t *testing.T) {
		f := newServiceFixture(t)
		f.txManager.On("Begin", mock.Anything).Return(f.tx, nil)
		f.tx.On("Rollback").Return(nil)
		f.customerRepo.On("GetByEmail", mock.Anything, f.tx, "jan@example.com").
			Return(nil, customer.ErrCustomerNotFound)
		f.customerRepo.On("Create", mock.Anything, f.tx, mock.Anything).Return(nil)
		f.reservationRepo.On("CountOverlapping", mock.Anything, f.tx, "prop-1", mock.Anything, mock.Anything).
			Return(0, nil)
		f.propertyRepo.On("CountBlackoutsIntersecting", mock.Anything, f.tx, "prop-1", mock.Anything, mock.Anything).
			Return(0, nil)
		f.seasonRepo.On("GetByPropertyID", mock.Anything, "prop-1").Return([]*season.Season{
			{ID: "default", PropertyID: "prop-1", IsDefault: true, PricePerNight: 10000, MinStay: 7},
		}, nil)

		_, err := f.service.CreateReservation(ctx, validInput())
		var v *policy.Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "min_stay", v.Rule)
		f.txManager.AssertNumberOfCalls(t, "Begin", 1)
		f.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("一過性エラーは再試行して成功する", func(t *testing.T) {
		f := newServiceFixture(t)
		f.arrangeHappyPath()
		// 最初の2試行はデッドロックで失敗し、3試行目で成功する
		f.reservationRepo.On("Create", mock.Anything, f.tx, mock.Anything).
			Return(&pq.Error{Code: "40P01"}).Twice()
		f.reservationRepo.On("Create", mock.Anything, f.tx, mock.Anything).
			Return(nil)

		got, err := f.service.CreateReservation(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, "res-1", got.ID)
		f.txManager.AssertNumberOfCalls(t, "Begin", 3)
		f.tx.AssertNumberOfCalls(t, "Commit", 1)
	})

	t.Run("既存顧客には空でない項目だけ反映される", func(t *testing.T) {
		f := newServiceFixture(t)
		f.arrangeHappyPath()
		f.reservationRepo.On("Create", mock.Anything, f.tx, mock.Anything).Return(nil)

		existing := &customer.Customer{
			ID:    "cust-7",
			Name:  "Jan Novák",
			Email: "jan@example.com",
			Phone: "+420777123456",
		}
		// arrangeHappyPath の NotFound 期待を上書き
		f.customerRepo.ExpectedCalls = nil
		f.customerRepo.On("GetByEmail", mock.Anything, f.tx, "jan@example.com").Return(existing, nil)
		f.customerRepo.On("Update", mock.Anything, f.tx, existing).Return(nil)

		input := validInput()
		input.CustomerPhone = "+420608999888"
		_, err := f.service.CreateReservation(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, "+420608999888", existing.Phone)
		f.customerRepo.AssertCalled(t, "Update", mock.Anything, f.tx, existing)
		f.customerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReservationService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("確定からチェックインまで", func(t *testing.T) {
		f := newServiceFixture(t)
		res := &reservation.Reservation{ID: "res-1", Status: reservation.StatusConfirmed}
		f.reservationRepo.On("GetByID", mock.Anything, "res-1").Return(res, nil)
		f.txManager.On("Begin", mock.Anything).Return(f.tx, nil)
		f.tx.On("Commit").Return(nil)
		f.tx.On("Rollback").Return(nil)
		f.reservationRepo.On("UpdateStatus", mock.Anything, f.tx, res).Return(nil)

		got, err := f.service.CheckInReservation(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCheckedIn, got.Status)
	})

	t.Run("不正な遷移は書き込まない", func(t *testing.T) {
		f := newServiceFixture(t)
		res := &reservation.Reservation{ID: "res-1", Status: reservation.StatusPending}
		f.reservationRepo.On("GetByID", mock.Anything, "res-1").Return(res, nil)

		_, err := f.service.CheckInReservation(ctx, "res-1")
		require.ErrorIs(t, err, reservation.ErrInvalidStatusTransition)
		f.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		f.reservationRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReservationService_CancelStalePending(t *testing.T) {
	ctx := context.Background()

	t.Run("滞留予約をキャンセルして件数を返す", func(t *testing.T) {
		f := newServiceFixture(t)
		stale := []*reservation.Reservation{
			{ID: "res-1", Status: reservation.StatusPending},
			{ID: "res-2", Status: reservation.StatusPending},
		}
		f.reservationRepo.On("GetStalePending", mock.Anything, 24*time.Hour).Return(stale, nil)
		f.txManager.On("Begin", mock.Anything).Return(f.tx, nil)
		f.tx.On("Commit").Return(nil)
		f.reservationRepo.On("UpdateStatus", mock.Anything, f.tx, mock.Anything).Return(nil)

		count, err := f.service.CancelStalePending(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, reservation.StatusCancelled, stale[0].Status)
		assert.Equal(t, reservation.StatusCancelled, stale[1].Status)
	})

	t.Run("遷移できない予約はスキップする", func(t *testing.T) {
		f := newServiceFixture(t)
		stale := []*reservation.Reservation{
			{ID: "res-1", Status: reservation.StatusCheckedOut},
		}
		f.reservationRepo.On("GetStalePending", mock.Anything, time.Hour).Return(stale, nil)

		count, err := f.service.CancelStalePending(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		f.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestBuildLedger(t *testing.T) {
	res := &reservation.Reservation{
		CheckIn:  time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC),
		Currency: "CZK",
	}

	t.Run("泊数で割り切れない宿泊料金でもTotalは内訳と一致する", func(t *testing.T) {
		// 3泊で40000なら平均単価は切り捨てで13333になる
		breakdown := &pricing.Breakdown{Accommodation: 40000, Total: 40000}

		ledger := buildLedger(res, breakdown)
		require.Len(t, ledger.Items, 1)
		item := ledger.Items[0]
		assert.Equal(t, reservation.LineItemAccommodation, item.Kind)
		assert.Equal(t, 3, item.Quantity)
		assert.Equal(t, int64(13333), item.UnitPrice)
		assert.Equal(t, int64(40000), item.Total)
	})

	t.Run("追加サービスはサービスごとに明細になる", func(t *testing.T) {
		breakdown := &pricing.Breakdown{
			Accommodation: 30000,
			Services:      1500,
			Total:         31500,
			ServiceDetails: []pricing.ServiceCharge{
				{ServiceID: "svc-1", Name: "朝食", Quantity: 3, UnitPrice: 500, Total: 1500},
			},
		}

		ledger := buildLedger(res, breakdown)
		require.Len(t, ledger.Items, 2)
		svc := ledger.Items[1]
		assert.Equal(t, reservation.LineItemService, svc.Kind)
		require.NotNil(t, svc.ServiceID)
		assert.Equal(t, "svc-1", *svc.ServiceID)
		assert.Equal(t, int64(1500), svc.Total)
	})
}
