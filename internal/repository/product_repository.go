package repository

import (
	"context"

	"orderledger/internal/domain/model"
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)

	//まとめて取得。見つからないIDは結果に含まれない
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	FindBySKU(ctx context.Context, sku string) (model.Product, bool, error)
	ListActive(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
}
