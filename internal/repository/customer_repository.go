package repository

import (
	"context"

	"orderledger/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id int64) (model.Customer, error)

	// 行ロック付きで取得（同じ顧客の与信チェックを直列化する）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Customer, error)

	FindByEmail(ctx context.Context, email string) (model.Customer, bool, error)
	ListByName(ctx context.Context) ([]model.Customer, error)
	Create(ctx context.Context, c model.Customer) (model.Customer, error)

	//未出荷注文の合計（なければ0）
	OpenBalance(ctx context.Context, customerID int64) (decimal.Decimal, error)
}
