package usecase

import (
	"context"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"

	"github.com/shopspring/decimal"
)

// 注文したい商品と数量
type ItemRef struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// 明細の検証と組み立て。単価は注文時点の値を写す
type OrderBuilder struct{}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{}
}

// 商品を引く前にできる検証
func validateItemRefs(refs []ItemRef) error {
	if len(refs) == 0 {
		return NewValidationError("cannot create an order without items")
	}
	for _, ref := range refs {
		if ref.Quantity <= 0 {
			return NewValidationError("item quantity must be greater than zero")
		}
	}
	return nil
}

// 1件でも解決できない商品があれば全体を失敗にする（部分作成なし）
func (b *OrderBuilder) BuildItems(ctx context.Context, r repo.TxRepos, refs []ItemRef) ([]model.OrderItem, decimal.Decimal, error) {
	if err := validateItemRefs(refs); err != nil {
		return nil, decimal.Zero, err
	}

	//重複を除いて1回でまとめて引く
	ids := make([]int64, 0, len(refs))
	seen := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ProductID]; ok {
			continue
		}
		seen[ref.ProductID] = struct{}{}
		ids = append(ids, ref.ProductID)
	}

	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	//リクエスト順で最初に見つからなかったIDを返す
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, decimal.Zero, &NotFoundError{Resource: "Product", ID: id}
		}
	}

	items := make([]model.OrderItem, 0, len(refs))
	for _, ref := range refs {
		p := byID[ref.ProductID]
		if !p.IsActive {
			return nil, decimal.Zero, NewValidationError("product %d is not active", p.ID)
		}
		items = append(items, model.NewOrderItem(p, ref.Quantity))
	}

	return items, model.SumAmounts(items), nil
}
