package usecase_test

import (
	"errors"
	"fmt"
	"testing"

	"orderledger/internal/event"
	"orderledger/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want usecase.ErrorKind
	}{
		{nil, ""},
		{errors.New("boom"), ""},
		{usecase.NewValidationError("bad %s", "input"), usecase.KindValidation},
		{&usecase.NotFoundError{Resource: "Order", ID: 1}, usecase.KindNotFound},
		{&usecase.CreditLimitExceededError{CustomerID: 1, Limit: money("1"), Attempted: money("2")}, usecase.KindCreditLimitExceeded},
		{&usecase.ConflictError{Message: "dup"}, usecase.KindConflict},
		{&event.PublishError{Topic: "t", Sink: event.SinkFileLog, Err: errors.New("disk full")}, usecase.KindPublishFailure},
		//wrapされていても判定できる
		{fmt.Errorf("ship: %w", &usecase.NotFoundError{Resource: "Order", ID: 2}), usecase.KindNotFound},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, usecase.KindOf(tc.err), "%v", tc.err)
	}
}

func TestCreditLimitExceededError_Message(t *testing.T) {
	err := &usecase.CreditLimitExceededError{CustomerID: 7, Limit: money("1000"), Attempted: money("1000.01")}
	assert.Equal(t, "customer 7 credit limit 1000.00 exceeded by attempted balance 1000.01", err.Error())
}
