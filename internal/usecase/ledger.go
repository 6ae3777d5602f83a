package usecase

import (
	"context"
	"errors"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"

	"github.com/shopspring/decimal"
)

// 残高の読み取り専用。副作用なし
// 呼び出し側のトランザクション(r)で毎回集計し直す
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) GetCustomer(ctx context.Context, r repo.TxRepos, customerID int64) (model.Customer, error) {
	c, err := r.Customers().FindByID(ctx, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Customer{}, &NotFoundError{Resource: "Customer", ID: customerID}
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

// 未出荷注文のamount_total合計。なければ0
func (l *Ledger) Balance(ctx context.Context, r repo.TxRepos, customerID int64) (decimal.Decimal, error) {
	return r.Customers().OpenBalance(ctx, customerID)
}

// 限度額 - 残高
func (l *Ledger) AvailableCredit(ctx context.Context, r repo.TxRepos, customer model.Customer) (decimal.Decimal, error) {
	balance, err := l.Balance(ctx, r, customer.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return customer.CreditLimit.Sub(balance), nil
}
