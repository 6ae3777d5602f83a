package repository

import (
	"context"
	"time"

	"orderledger/internal/domain/model"

	"github.com/shopspring/decimal"
)

type OrderListFilter struct {
	CustomerID *int64
	OpenOnly   bool
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 行ロック付きで取得（同じ注文への明細追加・出荷を直列化する）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)

	//新しい順（created_at desc, id desc）
	List(ctx context.Context, f OrderListFilter) ([]model.Order, error)

	//明細ごと保存する
	Create(ctx context.Context, order model.Order) (model.Order, error)

	UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error

	// 未出荷の注文だけ更新する。該当なし（出荷済み含む）はErrNotFound
	MarkShipped(ctx context.Context, orderID int64, shippedAt time.Time) error
}
