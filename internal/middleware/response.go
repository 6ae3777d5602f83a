package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handler層と同じ {"error":{"code","message"}} 形式
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorBody{Code: "Unauthorized", Message: "unauthorized"}})
}

func forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, errorResponse{Error: errorBody{Code: "Forbidden", Message: msg}})
}
