package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/season"
)

type seasonRow struct {
	ID                      string        `db:"id"`
	PropertyID              string        `db:"property_id"`
	Name                    string        `db:"name"`
	StartDate               *time.Time    `db:"start_date"`
	EndDate                 *time.Time    `db:"end_date"`
	IsDefault               bool          `db:"is_default"`
	IsRecurring             bool          `db:"is_recurring"`
	Priority                int           `db:"priority"`
	MinStay                 int           `db:"min_stay"`
	MinPersons              int           `db:"min_persons"`
	IsFullSeasonBookingOnly bool          `db:"is_full_season_booking_only"`
	PricePerNight           int64         `db:"price_per_night"`
	CheckInDays             pq.Int64Array `db:"check_in_days"`
	CreatedAt               time.Time     `db:"created_at"`
	UpdatedAt               time.Time     `db:"updated_at"`
}

type SeasonRepository struct{ db *sqlx.DB }

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetByPropertyID(ctx context.Context, propertyID string) ([]*season.Season, error) {
	var rows []seasonRow
	query := `SELECT id, property_id, name, start_date, end_date, is_default, is_recurring, priority,
		min_stay, min_persons, is_full_season_booking_only, price_per_night, check_in_days, created_at, updated_at
		FROM seasons WHERE property_id = $1 ORDER BY priority DESC, id`
	if err := r.db.SelectContext(ctx, &rows, query, propertyID); err != nil {
		return nil, fmt.Errorf("シーズン取得に失敗: %w", err)
	}
	result := make([]*season.Season, len(rows))
	for i, row := range rows {
		result[i] = r.toEntity(&row)
	}
	return result, nil
}

func (r *SeasonRepository) toEntity(row *seasonRow) *season.Season {
	days := make([]time.Weekday, len(row.CheckInDays))
	for i, d := range row.CheckInDays {
		days[i] = time.Weekday(d)
	}
	return &season.Season{
		ID:                      row.ID,
		PropertyID:              row.PropertyID,
		Name:                    row.Name,
		StartDate:               row.StartDate,
		EndDate:                 row.EndDate,
		IsDefault:               row.IsDefault,
		IsRecurring:             row.IsRecurring,
		Priority:                row.Priority,
		MinStay:                 row.MinStay,
		MinPersons:              row.MinPersons,
		IsFullSeasonBookingOnly: row.IsFullSeasonBookingOnly,
		PricePerNight:           row.PricePerNight,
		CheckInDays:             days,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
}

var _ season.Repository = (*SeasonRepository)(nil)
