package handler

import (
	"net/http"

	"orderledger/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductCreateRequest struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`

	//省略時は公開
	IsActive *bool `json:"is_active"`
}

// /products
type ProductHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewProductHandler(uc *usecase.CatalogUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, writeMW ...echo.MiddlewareFunc) {
	e.GET("/products", h.list)
	e.POST("/products", h.create, writeMW...)
}

// 公開中の商品のみ
func (h *ProductHandler) list(c echo.Context) error {
	out, err := h.uc.ListActiveProducts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) create(c echo.Context) error {
	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	out, err := h.uc.CreateProduct(c.Request().Context(), usecase.CreateProductInput{
		SKU:       req.SKU,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		IsActive:  active,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
