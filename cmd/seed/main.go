package main

import (
	"context"
	"errors"

	"orderledger/internal/config"
	"orderledger/internal/event"
	"orderledger/internal/infra/db"
	infraRepo "orderledger/internal/infra/repository"
	"orderledger/internal/usecase"
	"orderledger/internal/validator"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

type seedCustomer struct {
	name  string
	email string
	limit string
}

type seedProduct struct {
	sku   string
	name  string
	price string
}

var customers = []seedCustomer{
	{name: "Acme Corp", email: "ap@acme.example", limit: "10000.00"},
	{name: "Globex", email: "billing@globex.example", limit: "5000.00"},
}

var products = []seedProduct{
	{sku: "WIDGET-RED", name: "Widget (Red)", price: "25.00"},
	{sku: "WIDGET-BLU", name: "Widget (Blue)", price: "20.00"},
	{sku: "GADGET-STD", name: "Standard Gadget", price: "40.00"},
}

// 何度流しても同じ状態になる（既存データがあれば作らない）
func main() {
	logger := log.New("seed")

	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		logger.Fatal(err)
	}

	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		logger.Fatal(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal(err)
	}

	publisher, err := event.NewFileLogPublisher(cfg.EventTopic, cfg.EventLogDir, logger)
	if err != nil {
		logger.Fatal(err)
	}

	txm := infraRepo.NewTxManagerGorm(gormDB)
	clock := usecase.SystemClock{}
	catalog := usecase.NewCatalogUsecase(txm, validator.NewCatalogValidator(), clock)
	orders := usecase.NewOrderUsecase(txm, publisher, clock, logger)

	if err := run(context.Background(), catalog, orders, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, catalog *usecase.CatalogUsecase, orders *usecase.OrderUsecase, logger *log.Logger) error {
	existing, err := catalog.ListCustomers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("customers already exist, skipping seed")
		return nil
	}

	customerIDs := make(map[string]int64, len(customers))
	for _, c := range customers {
		out, err := catalog.CreateCustomer(ctx, usecase.CreateCustomerInput{
			Name:        c.name,
			Email:       c.email,
			CreditLimit: decimal.RequireFromString(c.limit),
		})
		if err != nil {
			return err
		}
		customerIDs[c.email] = out.ID
	}

	for _, p := range products {
		_, err := catalog.CreateProduct(ctx, usecase.CreateProductInput{
			SKU:       p.sku,
			Name:      p.name,
			UnitPrice: decimal.RequireFromString(p.price),
			IsActive:  true,
		})
		//商品だけ先に入っている場合
		var conflict *usecase.ConflictError
		if err != nil && !errors.As(err, &conflict) {
			return err
		}
	}

	active, err := catalog.ListActiveProducts(ctx)
	if err != nil {
		return err
	}
	productIDs := make(map[string]int64, len(active))
	for _, p := range active {
		productIDs[p.SKU] = p.ID
	}

	//未出荷の注文
	if _, err := orders.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID: customerIDs["ap@acme.example"],
		Items:      []usecase.ItemRef{{ProductID: productIDs["WIDGET-RED"], Quantity: 5}},
		Notes:      "Sample unshipped order",
	}); err != nil {
		return err
	}

	//出荷済みの注文
	shipped, err := orders.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID: customerIDs["billing@globex.example"],
		Items:      []usecase.ItemRef{{ProductID: productIDs["GADGET-STD"], Quantity: 2}},
		Notes:      "Shipped sample",
	})
	if err != nil {
		return err
	}
	if _, err := orders.ShipOrder(ctx, shipped.ID, nil); err != nil {
		return err
	}

	logger.Infof("seeded %d customers, %d products", len(customers), len(products))
	return nil
}
