package server

import (
	"orderledger/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h Handlers, writeMW ...echo.MiddlewareFunc) {
	handler.RegisterHealth(e)
	h.Customers.RegisterRoutes(e, writeMW...)
	h.Products.RegisterRoutes(e, writeMW...)
	h.Orders.RegisterRoutes(e, writeMW...)
}
