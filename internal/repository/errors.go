package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反（email / sku）
	ErrDuplicate = errors.New("duplicate")
)
