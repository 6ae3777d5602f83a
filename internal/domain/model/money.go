package model

import "github.com/shopspring/decimal"

// 金額は小数2桁まで
const MoneyScale = 2

// 小数2桁固定の文字列（浮動小数・ロケール書式は使わない）
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// 小数2桁を超える精度を持っていればfalse
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}
