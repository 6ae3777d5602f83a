package handler

import (
	"net/http"

	"orderledger/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 金額は "1000.00" でも 1000.00 でも受ける
type CustomerCreateRequest struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type CustomerHandler struct {
	catalog *usecase.CatalogUsecase
	orders  *usecase.OrderUsecase
}

// DI
func NewCustomerHandler(catalog *usecase.CatalogUsecase, orders *usecase.OrderUsecase) *CustomerHandler {
	return &CustomerHandler{catalog: catalog, orders: orders}
}

// 書き込み系にだけwriteMWを付ける
func (h *CustomerHandler) RegisterRoutes(e *echo.Echo, writeMW ...echo.MiddlewareFunc) {
	g := e.Group("/customers")

	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.GET("/:id/orders", h.customerOrders)
	g.POST("", h.create, writeMW...)
}

func (h *CustomerHandler) list(c echo.Context) error {
	out, err := h.catalog.ListCustomers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) detail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.catalog.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 顧客ごとの注文一覧（新しい順）
func (h *CustomerHandler) customerOrders(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.orders.ListOrdersByCustomer(c.Request().Context(), id, c.QueryParam("open") == "true")
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) create(c echo.Context) error {
	var req CustomerCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.catalog.CreateCustomer(c.Request().Context(), usecase.CreateCustomerInput{
		Name:        req.Name,
		Email:       req.Email,
		CreditLimit: req.CreditLimit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
