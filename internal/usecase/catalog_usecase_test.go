package usecase_test

import (
	"context"
	"errors"
	"testing"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"
	"orderledger/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =====================
// CreateCustomer
// =====================

func TestCatalogUsecase_CreateCustomer_Success(t *testing.T) {
	f := newFixture(t)

	out, err := f.catalog.CreateCustomer(context.Background(), usecase.CreateCustomerInput{
		Name:        "  Acme Corp ",
		Email:       " Billing@Acme.Example ",
		CreditLimit: money("2500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", out.Name)
	assert.Equal(t, "billing@acme.example", out.Email)
	assert.Equal(t, "2500.00", out.CreditLimit)
	assert.Equal(t, "0.00", out.Balance)
	assert.Equal(t, "2500.00", out.AvailableCredit)

	logs := f.store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionCreateCustomer, logs[0].Action)
	assert.Equal(t, out.ID, logs[0].ResourceID)
}

func TestCatalogUsecase_CreateCustomer_Validation(t *testing.T) {
	cases := []struct {
		name string
		in   usecase.CreateCustomerInput
		msg  string
	}{
		{"missing name", usecase.CreateCustomerInput{Email: "a@example.com", CreditLimit: money("10")}, "required"},
		{"bad email", usecase.CreateCustomerInput{Name: "A", Email: "not-an-email", CreditLimit: money("10")}, "invalid email"},
		{"zero limit", usecase.CreateCustomerInput{Name: "A", Email: "a@example.com", CreditLimit: decimal.Zero}, "greater than zero"},
		{"negative limit", usecase.CreateCustomerInput{Name: "A", Email: "a@example.com", CreditLimit: money("-5")}, "greater than zero"},
		{"three decimals", usecase.CreateCustomerInput{Name: "A", Email: "a@example.com", CreditLimit: money("10.005")}, "decimal places"},
		{"too large", usecase.CreateCustomerInput{Name: "A", Email: "a@example.com", CreditLimit: money("10000000000")}, "too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.catalog.CreateCustomer(context.Background(), tc.in)
			assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestCatalogUsecase_CreateCustomer_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.CreateCustomer(ctx, usecase.CreateCustomerInput{Name: "A", Email: "a@example.com", CreditLimit: money("10")})
	require.NoError(t, err)

	_, err = f.catalog.CreateCustomer(ctx, usecase.CreateCustomerInput{Name: "B", Email: "A@EXAMPLE.COM", CreditLimit: money("10")})
	assert.Equal(t, usecase.KindConflict, usecase.KindOf(err))
}

// 事前チェックをすり抜けてINSERTで一意制約に当たった場合もConflict
func TestCatalogUsecase_CreateCustomer_UniqueViolationAtInsert(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("customers.create", repo.ErrDuplicate)

	_, err := f.catalog.CreateCustomer(context.Background(), usecase.CreateCustomerInput{Name: "A", Email: "a@example.com", CreditLimit: money("10")})
	assert.Equal(t, usecase.KindConflict, usecase.KindOf(err))
	assert.Empty(t, f.store.AuditLogs())
}

// =====================
// CreateProduct
// =====================

func TestCatalogUsecase_CreateProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.catalog.CreateProduct(ctx, usecase.CreateProductInput{
		SKU:       " WIDGET-RED ",
		Name:      "Red widget",
		UnitPrice: money("25.5"),
		IsActive:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "WIDGET-RED", out.SKU)
	assert.Equal(t, "25.50", out.UnitPrice)
	assert.True(t, out.IsActive)

	_, err = f.catalog.CreateProduct(ctx, usecase.CreateProductInput{SKU: "WIDGET-RED", Name: "Again", UnitPrice: money("1")})
	assert.Equal(t, usecase.KindConflict, usecase.KindOf(err))

	_, err = f.catalog.CreateProduct(ctx, usecase.CreateProductInput{SKU: "FREE", Name: "Free", UnitPrice: decimal.Zero})
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))

	_, err = f.catalog.CreateProduct(ctx, usecase.CreateProductInput{SKU: "", Name: "No sku", UnitPrice: money("1")})
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))
}

func TestCatalogUsecase_ListActiveProducts_SkipsInactive(t *testing.T) {
	f := newFixture(t)

	f.store.SeedProduct("B-ITEM", "2.00", true)
	f.store.SeedProduct("A-ITEM", "1.00", true)
	f.store.SeedProduct("C-GONE", "3.00", false)

	out, err := f.catalog.ListActiveProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A-ITEM", out[0].SKU)
	assert.Equal(t, "B-ITEM", out[1].SKU)
}

// =====================
// Customers read side
// =====================

func TestCatalogUsecase_ListCustomers_WithBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	globex := f.store.SeedCustomer("Globex", "globex@example.com", "500.00")
	acme := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	_, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: acme.ID, Items: items(item(p.ID, 7))})
	require.NoError(t, err)

	out, err := f.catalog.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, acme.ID, out[0].ID)
	assert.Equal(t, "70.00", out[0].Balance)
	assert.Equal(t, "930.00", out[0].AvailableCredit)

	assert.Equal(t, globex.ID, out[1].ID)
	assert.Equal(t, "0.00", out[1].Balance)
	assert.Equal(t, "500.00", out[1].AvailableCredit)
}

func TestCatalogUsecase_GetCustomer_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.GetCustomer(context.Background(), 31)
	assert.Equal(t, usecase.KindNotFound, usecase.KindOf(err))
	assert.Equal(t, "Customer '31' was not found", err.Error())
}

func TestCatalogUsecase_GetCustomer_InfraError(t *testing.T) {
	f := newFixture(t)
	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")

	dbErr := errors.New("statement timeout")
	f.store.FailOn("customers.open_balance", dbErr)

	_, err := f.catalog.GetCustomer(context.Background(), c.ID)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, usecase.ErrorKind(""), usecase.KindOf(err))
}
