package usecase

import (
	"context"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"

	"github.com/shopspring/decimal"
)

// 与信枠の入場判定
// 呼び出し側は顧客行をロックしてから使う（同じ顧客の同時注文で枠を超えないため）
type CreditGuard struct {
	ledger *Ledger
}

func NewCreditGuard(ledger *Ledger) *CreditGuard {
	return &CreditGuard{ledger: ledger}
}

// 残高 + additional が限度額を超えたら拒否（ちょうど同じはOK）
func (g *CreditGuard) EnsureCredit(ctx context.Context, r repo.TxRepos, customer model.Customer, additional decimal.Decimal) error {
	balance, err := g.ledger.Balance(ctx, r, customer.ID)
	if err != nil {
		return err
	}
	return check(customer, balance.Add(additional))
}

// 既存注文の合計をnewTotalに置き換えたときの残高で判定する
func (g *CreditGuard) EnsureCreditForOrder(ctx context.Context, r repo.TxRepos, customer model.Customer, order model.Order, newTotal decimal.Decimal) error {
	balance, err := g.ledger.Balance(ctx, r, customer.ID)
	if err != nil {
		return err
	}
	if order.IsOpen() {
		//残高にはこの注文の保存済み合計が入っている
		balance = balance.Sub(order.AmountTotal)
	}
	return check(customer, balance.Add(newTotal))
}

func check(customer model.Customer, attempted decimal.Decimal) error {
	if attempted.GreaterThan(customer.CreditLimit) {
		return &CreditLimitExceededError{
			CustomerID: customer.ID,
			Limit:      customer.CreditLimit,
			Attempted:  attempted,
		}
	}
	return nil
}
