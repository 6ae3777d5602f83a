package usecase

import (
	"errors"
	"fmt"

	"orderledger/internal/domain/model"
	"orderledger/internal/event"

	"github.com/shopspring/decimal"
)

// 呼び出し側（HTTP/CLI）が区別して扱うエラーの種類
type ErrorKind string

const (
	KindValidation          ErrorKind = "ValidationError"
	KindNotFound            ErrorKind = "ResourceNotFound"
	KindCreditLimitExceeded ErrorKind = "CreditLimitExceeded"
	KindConflict            ErrorKind = "Conflict"
	KindPublishFailure      ErrorKind = "PublishFailure"
)

// 入力不正。変更より前に検出する
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%d' was not found", e.Resource, e.ID)
}

// メッセージには顧客ID・限度額・試算残高をそのまま含める
type CreditLimitExceededError struct {
	CustomerID int64
	Limit      decimal.Decimal
	Attempted  decimal.Decimal
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf(
		"customer %d credit limit %s exceeded by attempted balance %s",
		e.CustomerID, model.FormatMoney(e.Limit), model.FormatMoney(e.Attempted),
	)
}

// email / sku の重複
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ドメインのエラーでなければ空文字（インフラ障害）
func KindOf(err error) ErrorKind {
	var (
		ve *ValidationError
		ne *NotFoundError
		ce *CreditLimitExceededError
		cf *ConflictError
		pe *event.PublishError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ne):
		return KindNotFound
	case errors.As(err, &ce):
		return KindCreditLimitExceeded
	case errors.As(err, &cf):
		return KindConflict
	case errors.As(err, &pe):
		return KindPublishFailure
	default:
		return ""
	}
}

func IsPublishFailure(err error) bool {
	return KindOf(err) == KindPublishFailure
}
