package model

import "github.com/shopspring/decimal"

// 注文時点の単価を必ず保存（商品の現在価格は参照しない）
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
	Quantity  int64           `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
}

// Amount = UnitPrice × Quantity
func NewOrderItem(p Product, quantity int64) OrderItem {
	return OrderItem{
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: p.UnitPrice,
		Amount:    p.UnitPrice.Mul(decimal.NewFromInt(quantity)),
	}
}
