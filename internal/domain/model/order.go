package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderState string

const (
	OrderStateOpen    OrderState = "OPEN"
	OrderStateShipped OrderState = "SHIPPED"
)

// AmountTotalは明細から導出する。直接セットしない（RecalculateTotalのみ）。
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID  int64           `gorm:"not null;index:idx_orders_customer_open,priority:1" json:"customer_id"`
	AmountTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount_total"`
	Notes       *string         `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"date_created"`

	//nilの間はOPEN。残高に含まれる
	ShippedAt *time.Time `gorm:"index:idx_orders_customer_open,priority:2" json:"date_shipped"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (o *Order) IsOpen() bool {
	return o.ShippedAt == nil
}

func (o *Order) State() OrderState {
	if o.IsOpen() {
		return OrderStateOpen
	}
	return OrderStateShipped
}

// 明細の合計でAmountTotalを作り直す
func (o *Order) RecalculateTotal() decimal.Decimal {
	o.AmountTotal = SumAmounts(o.Items)
	return o.AmountTotal
}

func SumAmounts(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}
