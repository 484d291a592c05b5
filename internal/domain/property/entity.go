package property

import "time"

// Property は宿泊施設エンティティを表す
type Property struct {
	ID            string
	Name          string
	PricePerNight int64 // デフォルトシーズンも無い場合の基準宿泊料金（最小通貨単位）
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate は施設の検証を行う
func (p *Property) Validate() error {
	if p.Name == "" {
		return ErrPropertyNameRequired
	}
	if p.PricePerNight < 0 {
		return ErrInvalidBasePrice
	}
	return nil
}

// PricingType は追加サービスの課金方式を表す
type PricingType string

const (
	// PricingPerStay は滞在単位の課金（数量 × 単価）
	PricingPerStay PricingType = "per_stay"
	// PricingPerNight は泊単位の課金（数量 × 泊数 × 単価）
	PricingPerNight PricingType = "per_night"
)

// Service は施設の追加サービス（朝食・クリーニング等）を表す
type Service struct {
	ID          string
	PropertyID  string
	Name        string
	Price       int64
	PricingType PricingType
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BlackoutDate は予約とは独立した施設の提供停止期間を表す
type BlackoutDate struct {
	ID         string
	PropertyID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	CreatedAt  time.Time
}
