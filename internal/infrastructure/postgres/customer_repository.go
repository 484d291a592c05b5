package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/customer"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/transaction"
)

type customerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Company   string    `db:"company"`
	TaxID     string    `db:"tax_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type CustomerRepository struct{ db *sqlx.DB }

func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByEmail はメールアドレスから顧客を取得する
// トランザクション内で呼ばれた場合は行をロックし、同一顧客の並行更新を直列化する
func (r *CustomerRepository) GetByEmail(ctx context.Context, tx transaction.Tx, email string) (*customer.Customer, error) {
	q := querier(r.db, tx)
	query := `SELECT id, name, email, phone, company, tax_id, created_at, updated_at FROM customers WHERE email = $1`
	if UnwrapTx(tx) != nil {
		query += ` FOR UPDATE`
	}
	var row customerRow
	if err := sqlx.GetContext(ctx, q, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("顧客取得に失敗: %w", err)
	}
	return r.toEntity(&row), nil
}

func (r *CustomerRepository) Create(ctx context.Context, tx transaction.Tx, c *customer.Customer) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("顧客作成にはトランザクションが必要です")
	}
	query := `INSERT INTO customers (name, email, phone, company, tax_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		c.Name, c.Email, c.Phone, c.Company, c.TaxID, c.CreatedAt, c.UpdatedAt).Scan(&c.ID); err != nil {
		return fmt.Errorf("顧客作成に失敗: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, tx transaction.Tx, c *customer.Customer) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("顧客更新にはトランザクションが必要です")
	}
	query := `UPDATE customers SET name = $1, phone = $2, company = $3, tax_id = $4, updated_at = $5 WHERE id = $6`
	result, err := sqlxTx.ExecContext(ctx, query, c.Name, c.Phone, c.Company, c.TaxID, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("顧客更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return customer.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) toEntity(row *customerRow) *customer.Customer {
	return &customer.Customer{
		ID: row.ID, Name: row.Name, Email: row.Email, Phone: row.Phone,
		Company: row.Company, TaxID: row.TaxID,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ customer.Repository = (*CustomerRepository)(nil)
