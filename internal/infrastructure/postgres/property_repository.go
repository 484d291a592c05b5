package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/property"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

type propertyRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	PricePerNight int64     `db:"price_per_night"`
	Currency      string    `db:"currency"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type serviceRow struct {
	ID          string    `db:"id"`
	PropertyID  string    `db:"property_id"`
	Name        string    `db:"name"`
	Price       int64     `db:"price"`
	PricingType string    `db:"pricing_type"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type PropertyRepository struct{ db *sqlx.DB }

func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*property.Property, error) {
	var row propertyRow
	query := `SELECT id, name, price_per_night, currency, created_at, updated_at FROM properties WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, property.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("施設取得に失敗: %w", err)
	}
	return &property.Property{
		ID: row.ID, Name: row.Name, PricePerNight: row.PricePerNight,
		Currency: row.Currency, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *PropertyRepository) GetServices(ctx context.Context, propertyID string) ([]*property.Service, error) {
	var rows []serviceRow
	query := `SELECT id, property_id, name, price, pricing_type, is_active, created_at, updated_at FROM services WHERE property_id = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &rows, query, propertyID); err != nil {
		return nil, fmt.Errorf("追加サービス取得に失敗: %w", err)
	}
	result := make([]*property.Service, len(rows))
	for i, row := range rows {
		result[i] = &property.Service{
			ID: row.ID, PropertyID: row.PropertyID, Name: row.Name,
			Price: row.Price, PricingType: property.PricingType(row.PricingType),
			IsActive: row.IsActive, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		}
	}
	return result, nil
}

// CountBlackoutsIntersecting は半開区間 [start, end) と交差する提供停止期間を数える
// start と end は暦日（0時）に正規化済みであることを前提に、日付同士で比較する
func (r *PropertyRepository) CountBlackoutsIntersecting(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error) {
	q := querier(r.db, tx)
	var count int
	query := `SELECT COUNT(*) FROM blackout_dates WHERE property_id = $1 AND start_date < $3 AND end_date > $2`
	if err := sqlx.GetContext(ctx, q, &count, query, propertyID, start, end); err != nil {
		return 0, fmt.Errorf("提供停止期間の取得に失敗: %w", err)
	}
	return count, nil
}

var _ property.Repository = (*PropertyRepository)(nil)
