package policy

import (
	"fmt"
	"time"

	"github.com/hrnicek/rezio-cz-sub000/internal/domain/reservation"
	"github.com/hrnicek/rezio-cz-sub000/internal/domain/season"
)

// Stay は検証対象の宿泊区間を表す
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Nights は暦日単位の泊数を返す
func (s Stay) Nights() int {
	return reservation.NightsBetween(s.CheckIn, s.CheckOut)
}

// Violation は宿泊ポリシー違反を表す業務エラー
type Violation struct {
	Rule    string
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("ポリシー違反 [%s]: %s", v.Rule, v.Message)
}

// BusinessError はリトライ対象外の業務エラーであることを示す
func (v *Violation) BusinessError() bool { return true }

// Rule は宿泊ポリシーの検証単位
// 新しいルールはチェーンへの登録で追加し、既存ルールには手を入れない
type Rule interface {
	// Name はルールの識別名を返す
	Name() string
	// Validate は違反時に *Violation を返す
	Validate(stay Stay, s *season.Season, guests int) error
}

// Chain は登録順にルールを評価するチェーン
// 最初の違反で打ち切り、その違反をそのまま報告する
type Chain struct {
	rules []Rule
}

// NewChain は新しいルールチェーンを作成する
func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: rules}
}

// Register はルールを末尾に登録する
func (c *Chain) Register(r Rule) {
	c.rules = append(c.rules, r)
}

// Rules は登録済みルールの一覧を返す
func (c *Chain) Rules() []Rule {
	return c.rules
}

// Validate は登録順に全ルールを評価し、最初の違反を返す
func (c *Chain) Validate(stay Stay, s *season.Season, guests int) error {
	for _, r := range c.rules {
		if err := r.Validate(stay, s, guests); err != nil {
			return err
		}
	}
	return nil
}
