package handler

import (
	"net/http"

	"orderledger/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func errorJSON(code string, msg string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: msg}}
}

// ドメインエラーの種類ごとにステータスを分ける
func statusOf(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindValidation:
		return http.StatusBadRequest
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindCreditLimitExceeded, usecase.KindConflict:
		return http.StatusConflict
	case usecase.KindPublishFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	kind := usecase.KindOf(err)
	if kind == "" {
		//500。中身は返さずログにだけ残す
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorJSON("InternalError", "internal error"))
	}
	if kind == usecase.KindPublishFailure {
		c.Logger().Error(err)
	}
	return c.JSON(statusOf(kind), errorJSON(string(kind), err.Error()))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorJSON(string(usecase.KindValidation), msg))
}
