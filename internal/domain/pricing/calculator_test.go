package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/property"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/season"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func testProperty() *property.Property {
	return &property.Property{ID: "prop-1", Name: "山荘", PricePerNight: 5000, Currency: "CZK"}
}

func testSeasons() []*season.Season {
	return []*season.Season{
		{ID: "default", PropertyID: "prop-1", Name: "通常期", IsDefault: true, PricePerNight: 10000},
		{
			ID:            "summer",
			PropertyID:    "prop-1",
			Name:          "夏季",
			IsRecurring:   true,
			StartDate:     datePtr(2020, 6, 1),
			EndDate:       datePtr(2020, 8, 31),
			PricePerNight: 20000,
		},
	}
}

func TestStayPrice(t *testing.T) {
	prop := testProperty()
	seasons := testSeasons()

	t.Run("シーズン境界をまたぐ滞在", func(t *testing.T) {
		// 5/30, 5/31 は通常期、6/1 は夏季
		got, err := StayPrice(prop, seasons, date(2025, 5, 30), date(2025, 6, 2))
		require.NoError(t, err)
		assert.Equal(t, int64(10000+10000+20000), got)
	})

	t.Run("夏季のみの滞在", func(t *testing.T) {
		got, err := StayPrice(prop, seasons, date(2025, 7, 1), date(2025, 7, 4))
		require.NoError(t, err)
		assert.Equal(t, int64(3*20000), got)
	})

	t.Run("泊ごとの合計は分割しても変わらない", func(t *testing.T) {
		whole, err := StayPrice(prop, seasons, date(2025, 5, 28), date(2025, 6, 5))
		require.NoError(t, err)
		first, err := StayPrice(prop, seasons, date(2025, 5, 28), date(2025, 6, 1))
		require.NoError(t, err)
		second, err := StayPrice(prop, seasons, date(2025, 6, 1), date(2025, 6, 5))
		require.NoError(t, err)
		assert.Equal(t, whole, first+second)
	})

	t.Run("デフォルトシーズンが無ければ基準料金", func(t *testing.T) {
		got, err := StayPrice(prop, nil, date(2025, 7, 1), date(2025, 7, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(2*5000), got)
	})

	t.Run("空の期間はエラー", func(t *testing.T) {
		_, err := StayPrice(prop, seasons, date(2025, 7, 1), date(2025, 7, 1))
		assert.ErrorIs(t, err, season.ErrEmptyStayRange)
	})
}

func TestServicesPrice(t *testing.T) {
	services := []*property.Service{
		{ID: "svc-breakfast", Name: "朝食", Price: 300, PricingType: property.PricingPerNight, IsActive: true},
		{ID: "svc-cleaning", Name: "クリーニング", Price: 1500, PricingType: property.PricingPerStay, IsActive: true},
		{ID: "svc-old", Name: "廃止済み", Price: 9999, PricingType: property.PricingPerStay, IsActive: false},
	}

	t.Run("per_nightは泊数を掛ける", func(t *testing.T) {
		total, details := ServicesPrice(services, []ServiceSelection{{ServiceID: "svc-breakfast", Quantity: 2}}, 3)
		assert.Equal(t, int64(2*3*300), total)
		require.Len(t, details, 1)
		assert.Equal(t, int64(1800), details[0].Total)
	})

	t.Run("per_stayは泊数に依存しない", func(t *testing.T) {
		total, _ := ServicesPrice(services, []ServiceSelection{{ServiceID: "svc-cleaning", Quantity: 1}}, 10)
		assert.Equal(t, int64(1500), total)
	})

	t.Run("非アクティブと数量0はスキップ", func(t *testing.T) {
		total, details := ServicesPrice(services, []ServiceSelection{
			{ServiceID: "svc-old", Quantity: 1},
			{ServiceID: "svc-breakfast", Quantity: 0},
			{ServiceID: "unknown", Quantity: 1},
		}, 3)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, details)
	})
}

func TestCalculate(t *testing.T) {
	prop := testProperty()
	seasons := testSeasons()
	services := []*property.Service{
		{ID: "svc-breakfast", Name: "朝食", Price: 300, PricingType: property.PricingPerNight, IsActive: true},
	}

	t.Run("宿泊とサービスの合算", func(t *testing.T) {
		got, err := Calculate(prop, seasons, services,
			[]ServiceSelection{{ServiceID: "svc-breakfast", Quantity: 2}},
			date(2025, 7, 1), date(2025, 7, 4))
		require.NoError(t, err)
		assert.Equal(t, int64(60000), got.Accommodation)
		assert.Equal(t, int64(1800), got.Services)
		assert.Equal(t, int64(61800), got.Total)
	})

	t.Run("計算失敗はCalculationErrorに包む", func(t *testing.T) {
		_, err := Calculate(prop, seasons, nil, nil, date(2025, 7, 4), date(2025, 7, 1))
		var calcErr *CalculationError
		require.ErrorAs(t, err, &calcErr)
		assert.True(t, calcErr.BusinessError())
		assert.ErrorIs(t, err, season.ErrEmptyStayRange)
	})
}
