package pricing

import (
	"errors"
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/property"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/season"
)

// ServiceSelection は予約リクエストで指定される追加サービスの選択
type ServiceSelection struct {
	ServiceID string
	Quantity  int
}

// ServiceCharge は追加サービス1件分の内訳
type ServiceCharge struct {
	ServiceID string
	Name      string
	Quantity  int
	UnitPrice int64
	Total     int64
}

// Breakdown は宿泊料金と追加サービス料金の内訳
type Breakdown struct {
	Accommodation  int64
	Services       int64
	Total          int64
	ServiceDetails []ServiceCharge
}

// StayPrice は半開区間 [checkIn, checkOut) の各泊についてシーズンを解決し、
// 宿泊料金を合算する
// 料金の優先順位: 該当シーズン → デフォルトシーズン → 施設の基準料金
// 入力の時刻成分は暦日開始に正規化してから泊を数える
func StayPrice(prop *property.Property, seasons []*season.Season, checkIn, checkOut time.Time) (int64, error) {
	from := startOfDay(checkIn)
	to := startOfDay(checkOut)
	if !from.Before(to) {
		return 0, season.ErrEmptyStayRange
	}

	var total int64
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		s, err := season.ResolveForDate(seasons, d)
		switch {
		case err == nil:
			total += s.PricePerNight
		case errors.Is(err, season.ErrDefaultSeasonMissing):
			// デフォルトシーズンが無い施設は基準料金にフォールバック
			total += prop.PricePerNight
		default:
			return 0, err
		}
	}
	return total, nil
}

// ServicesPrice は選択された追加サービスの合計と内訳を計算する
// 非アクティブなサービスと数量0の選択は黙ってスキップする
// per_stay は 数量×単価、per_night は 数量×泊数×単価
func ServicesPrice(services []*property.Service, selections []ServiceSelection, nights int) (int64, []ServiceCharge) {
	byID := make(map[string]*property.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	var total int64
	details := make([]ServiceCharge, 0, len(selections))
	for _, sel := range selections {
		svc, ok := byID[sel.ServiceID]
		if !ok || !svc.IsActive || sel.Quantity <= 0 {
			continue
		}
		line := int64(sel.Quantity) * svc.Price
		if svc.PricingType == property.PricingPerNight {
			line = int64(sel.Quantity) * int64(nights) * svc.Price
		}
		details = append(details, ServiceCharge{
			ServiceID: svc.ID,
			Name:      svc.Name,
			Quantity:  sel.Quantity,
			UnitPrice: svc.Price,
			Total:     line,
		})
		total += line
	}
	return total, details
}

// Calculate は宿泊と追加サービスを合わせた PriceBreakdown を計算する
func Calculate(prop *property.Property, seasons []*season.Season, services []*property.Service, selections []ServiceSelection, checkIn, checkOut time.Time) (*Breakdown, error) {
	accommodation, err := StayPrice(prop, seasons, checkIn, checkOut)
	if err != nil {
		return nil, &CalculationError{PropertyID: prop.ID, CheckIn: checkIn, CheckOut: checkOut, Err: err}
	}
	nights := int(startOfDay(checkOut).Sub(startOfDay(checkIn)).Hours() / 24)
	servicesTotal, details := ServicesPrice(services, selections, nights)
	return &Breakdown{
		Accommodation:  accommodation,
		Services:       servicesTotal,
		Total:          accommodation + servicesTotal,
		ServiceDetails: details,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
