package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

type reservationRow struct {
	ID         string    `db:"id"`
	Code       string    `db:"code"`
	PropertyID string    `db:"property_id"`
	CustomerID string    `db:"customer_id"`
	CheckIn    time.Time `db:"check_in"`
	CheckOut   time.Time `db:"check_out"`
	Status     string    `db:"status"`
	TotalPrice int64     `db:"total_price"`
	Currency   string    `db:"currency"`
	Guests     int       `db:"guests"`
	Notes      string    `db:"notes"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type lineItemRow struct {
	ID          string  `db:"id"`
	LedgerID    string  `db:"ledger_id"`
	Kind        string  `db:"kind"`
	ServiceID   *string `db:"service_id"`
	Description string  `db:"description"`
	Quantity    int     `db:"quantity"`
	UnitPrice   int64   `db:"unit_price"`
	Total       int64   `db:"total"`
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create は予約・勘定・明細を同一トランザクションで挿入する
// どれか1つでも失敗すればトランザクション全体がロールバックされる
func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("予約作成にはトランザクションが必要です")
	}

	query := `INSERT INTO reservations (code, property_id, customer_id, check_in, check_out, status, total_price, currency, guests, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		res.Code, res.PropertyID, res.CustomerID, res.CheckIn, res.CheckOut,
		string(res.Status), res.TotalPrice, res.Currency, res.Guests, res.Notes,
		res.CreatedAt, res.UpdatedAt).Scan(&res.ID); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return reservation.ErrCodeAlreadyExists
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}

	if res.Ledger == nil {
		return nil
	}
	res.Ledger.ReservationID = res.ID
	if err := sqlxTx.QueryRowContext(ctx,
		`INSERT INTO ledgers (reservation_id, currency, created_at) VALUES ($1, $2, $3) RETURNING id`,
		res.Ledger.ReservationID, res.Ledger.Currency, res.Ledger.CreatedAt).Scan(&res.Ledger.ID); err != nil {
		return fmt.Errorf("勘定作成に失敗: %w", err)
	}
	for _, item := range res.Ledger.Items {
		item.LedgerID = res.Ledger.ID
		if err := sqlxTx.QueryRowContext(ctx,
			`INSERT INTO line_items (ledger_id, kind, service_id, description, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			item.LedgerID, string(item.Kind), item.ServiceID, item.Description,
			item.Quantity, item.UnitPrice, item.Total).Scan(&item.ID); err != nil {
			return fmt.Errorf("明細作成に失敗: %w", err)
		}
	}
	return nil
}

const reservationColumns = `id, code, property_id, customer_id, check_in, check_out, status, total_price, currency, guests, notes, created_at, updated_at`

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *ReservationRepository) GetByCode(ctx context.Context, code string) (*reservation.Reservation, error) {
	return r.getOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE code = $1`, code)
}

func (r *ReservationRepository) getOne(ctx context.Context, query string, arg any) (*reservation.Reservation, error) {
	var row reservationRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	res := r.toEntity(&row)
	if err := r.loadAggregate(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// loadAggregate は顧客・勘定・明細を読み込んで集約を完成させる
func (r *ReservationRepository) loadAggregate(ctx context.Context, res *reservation.Reservation) error {
	var cust customerRow
	if err := r.db.GetContext(ctx, &cust,
		`SELECT id, name, email, phone, company, tax_id, created_at, updated_at FROM customers WHERE id = $1`,
		res.CustomerID); err == nil {
		res.Customer = (&CustomerRepository{db: r.db}).toEntity(&cust)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("予約顧客の取得に失敗: %w", err)
	}

	var ledger struct {
		ID        string    `db:"id"`
		Currency  string    `db:"currency"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &ledger,
		`SELECT id, currency, created_at FROM ledgers WHERE reservation_id = $1 ORDER BY created_at LIMIT 1`, res.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("勘定取得に失敗: %w", err)
	}

	var items []lineItemRow
	if err := r.db.SelectContext(ctx, &items,
		`SELECT id, ledger_id, kind, service_id, description, quantity, unit_price, total FROM line_items WHERE ledger_id = $1 ORDER BY id`,
		ledger.ID); err != nil {
		return fmt.Errorf("明細取得に失敗: %w", err)
	}

	l := &reservation.Ledger{
		ID: ledger.ID, ReservationID: res.ID,
		Currency: ledger.Currency, CreatedAt: ledger.CreatedAt,
	}
	for _, item := range items {
		l.Items = append(l.Items, &reservation.LineItem{
			ID: item.ID, LedgerID: item.LedgerID,
			Kind:      reservation.LineItemKind(item.Kind),
			ServiceID: item.ServiceID, Description: item.Description,
			Quantity: item.Quantity, UnitPrice: item.UnitPrice, Total: item.Total,
		})
	}
	res.Ledger = l
	return nil
}

// CountOverlapping は半開区間 [start, end) と重なるキャンセル以外の予約を数える
// トランザクション内では施設行を先にロックし、同一施設への競合挿入を直列化する
func (r *ReservationRepository) CountOverlapping(ctx context.Context, tx transaction.Tx, propertyID string, start, end time.Time) (int, error) {
	q := querier(r.db, tx)
	if sqlxTx := UnwrapTx(tx); sqlxTx != nil {
		var lockedID string
		if err := sqlxTx.QueryRowContext(ctx,
			`SELECT id FROM properties WHERE id = $1 FOR UPDATE`, propertyID).Scan(&lockedID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("施設行のロックに失敗: 施設 %s が存在しません", propertyID)
			}
			return 0, fmt.Errorf("施設行のロックに失敗: %w", err)
		}
	}

	var count int
	query := `SELECT COUNT(*) FROM reservations
		WHERE property_id = $1 AND status <> 'cancelled' AND check_in < $3 AND check_out > $2`
	if err := sqlx.GetContext(ctx, q, &count, query, propertyID, start, end); err != nil {
		return 0, fmt.Errorf("重複予約の取得に失敗: %w", err)
	}
	return count, nil
}

func (r *ReservationRepository) CodeExists(ctx context.Context, tx transaction.Tx, code string) (bool, error) {
	q := querier(r.db, tx)
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE code = $1)`, code); err != nil {
		return false, fmt.Errorf("予約コード確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("予約更新にはトランザクションが必要です")
	}
	result, err := sqlxTx.ExecContext(ctx,
		`UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`,
		string(res.Status), res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) GetStalePending(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+reservationColumns+` FROM reservations WHERE status = 'pending' AND created_at < $1`,
		time.Now().Add(-olderThan)); err != nil {
		return nil, fmt.Errorf("滞留予約の取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = r.toEntity(&row)
	}
	return result, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM reservations GROUP BY status`); err != nil {
		return nil, fmt.Errorf("状態別予約数の取得に失敗: %w", err)
	}
	result := make(map[reservation.Status]int, len(rows))
	for _, row := range rows {
		result[reservation.Status(row.Status)] = row.Count
	}
	return result, nil
}

func (r *ReservationRepository) toEntity(row *reservationRow) *reservation.Reservation {
	return &reservation.Reservation{
		ID: row.ID, Code: row.Code,
		PropertyID: row.PropertyID, CustomerID: row.CustomerID,
		CheckIn: row.CheckIn, CheckOut: row.CheckOut,
		Status: reservation.Status(row.Status), TotalPrice: row.TotalPrice,
		Currency: row.Currency, Guests: row.Guests, Notes: row.Notes,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ reservation.Repository = (*ReservationRepository)(nil)
