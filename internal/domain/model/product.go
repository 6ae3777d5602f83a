package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 非公開（IsActive=false）でも過去の注文明細からは参照される
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU       string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex" json:"sku"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	IsActive  bool            `gorm:"not null" json:"is_active"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
