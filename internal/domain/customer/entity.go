package customer

import (
	"strings"
	"time"
)

// Customer は顧客エンティティを表す
// 連絡先アイデンティティ（メールアドレス）で検索・作成され、重複登録はしない
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Company   string
	TaxID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer は新しい顧客を作成する
func NewCustomer(name, email, phone, company, taxID string) *Customer {
	now := time.Now()
	return &Customer{
		Name:      name,
		Email:     NormalizeEmail(email),
		Phone:     phone,
		Company:   company,
		TaxID:     taxID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail はメールアドレスを同一性判定用に正規化する
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate は顧客の検証を行う
func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Email == "" {
		return ErrEmailRequired
	}
	if !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Merge は再予約時に新しく渡された空でない項目だけを既存レコードに反映する
// 変更があった場合に true を返す
func (c *Customer) Merge(incoming *Customer) bool {
	changed := false
	if incoming.Name != "" && incoming.Name != c.Name {
		c.Name = incoming.Name
		changed = true
	}
	if incoming.Phone != "" && incoming.Phone != c.Phone {
		c.Phone = incoming.Phone
		changed = true
	}
	if incoming.Company != "" && incoming.Company != c.Company {
		c.Company = incoming.Company
		changed = true
	}
	if incoming.TaxID != "" && incoming.TaxID != c.TaxID {
		c.TaxID = incoming.TaxID
		changed = true
	}
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}
