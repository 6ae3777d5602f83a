package validator

import (
	"context"
	"net/mail"

	"orderledger/internal/domain/model"
	"orderledger/internal/usecase"

	"github.com/shopspring/decimal"
)

const (
	maxNameLen = 255
	maxSKULen  = 64
)

// numeric(12,2)に入る上限（10^10未満）
var maxMoney = decimal.New(1, 10)

type catalogValidator struct{}

// Usecaseは interface を依存注入
func NewCatalogValidator() usecase.CatalogValidator {
	return &catalogValidator{}
}

// 顧客登録の入力を検証（trim済みの値を受け取る）
func (v *catalogValidator) ValidateCustomer(ctx context.Context, name string, email string, creditLimit decimal.Decimal) error {
	// 必須チェック
	if name == "" || email == "" {
		return usecase.NewValidationError("customer name and email are required")
	}
	if len(name) > maxNameLen || len(email) > maxNameLen {
		return usecase.NewValidationError("customer name and email must be at most %d characters", maxNameLen)
	}

	// email形式
	if _, err := mail.ParseAddress(email); err != nil {
		return usecase.NewValidationError("invalid email %q", email)
	}

	return validateMoney("credit limit", creditLimit)
}

// 商品登録の入力を検証
func (v *catalogValidator) ValidateProduct(ctx context.Context, sku string, name string, unitPrice decimal.Decimal) error {
	if sku == "" || name == "" {
		return usecase.NewValidationError("product SKU and name are required")
	}
	if len(sku) > maxSKULen {
		return usecase.NewValidationError("product SKU must be at most %d characters", maxSKULen)
	}
	if len(name) > maxNameLen {
		return usecase.NewValidationError("product name must be at most %d characters", maxNameLen)
	}
	return validateMoney("unit price", unitPrice)
}

// > 0 かつ小数2桁まで
func validateMoney(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return usecase.NewValidationError("%s must be greater than zero", field)
	}
	if !model.HasMoneyPrecision(v) {
		return usecase.NewValidationError("%s must have at most %d decimal places", field, model.MoneyScale)
	}
	if v.GreaterThanOrEqual(maxMoney) {
		return usecase.NewValidationError("%s is too large", field)
	}
	return nil
}
