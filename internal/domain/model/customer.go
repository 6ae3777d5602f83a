package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 与信枠を持つ顧客
type Customer struct {
	ID    int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"type:varchar(255);not null;index" json:"name"`
	Email string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`

	//与信限度額（> 0）
	CreditLimit decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"credit_limit"`

	//顧客削除で注文も消える
	Orders []Order `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
