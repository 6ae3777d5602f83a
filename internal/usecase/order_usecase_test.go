package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"orderledger/internal/domain/model"
	"orderledger/internal/event"
	"orderledger/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// CreateOrder
// =====================

func TestOrderUsecase_CreditLimit_ShipFreesCredit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	big := f.store.SeedProduct("BIG", "1000.00", true)
	cent := f.store.SeedProduct("CENT", "0.01", true)

	first, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(big.ID, 1))})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", first.AmountTotal)
	assert.Equal(t, "OPEN", first.State)

	_, err = f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(cent.ID, 1))})
	var ce *usecase.CreditLimitExceededError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, c.ID, ce.CustomerID)
	assert.Equal(t, "1000.01", ce.Attempted.StringFixed(2))
	assert.Contains(t, err.Error(), "1000.01")
	assert.Equal(t, usecase.KindCreditLimitExceeded, usecase.KindOf(err))
	assert.Len(t, f.store.Orders(), 1)

	f.pub.On("PublishShipment", mock.Anything, orderWithID(first.ID)).Return(event.Message{ID: "m-1"}, nil).Once()

	shipped, err := f.orders.ShipOrder(ctx, first.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", shipped.State)
	assert.Equal(t, "0.00", balanceOf(t, f, c.ID))

	retry, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(cent.ID, 1))})
	require.NoError(t, err)
	assert.Equal(t, "0.01", retry.AmountTotal)
	assert.Equal(t, "0.01", balanceOf(t, f, c.ID))

	f.pub.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_ExactlyAtLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("HALF", "50.00", true)

	out, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 2))})
	require.NoError(t, err)
	assert.Equal(t, "100.00", out.AmountTotal)

	cust, err := f.catalog.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", cust.Balance)
	assert.Equal(t, "0.00", cust.AvailableCredit)
}

func TestOrderUsecase_CreateOrder_MissingProduct_NothingPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("REAL", "10.00", true)

	_, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID: c.ID,
		Items:      items(item(p.ID, 1), item(999, 1)),
	})

	var ne *usecase.NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "Product", ne.Resource)
	assert.Equal(t, int64(999), ne.ID)
	assert.Equal(t, "Product '999' was not found", err.Error())

	assert.Empty(t, f.store.Orders())
	assert.Equal(t, 0, f.store.OrderItemCount())
	assert.Empty(t, f.store.AuditLogs())
}

func TestOrderUsecase_CreateOrder_ReportsFirstMissingProductInRequestOrder(t *testing.T) {
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("REAL", "10.00", true)

	_, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID: c.ID,
		Items:      items(item(998, 1), item(p.ID, 1), item(997, 1)),
	})

	var ne *usecase.NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, int64(998), ne.ID)
}

func TestOrderUsecase_CreateOrder_EmptyItems(t *testing.T) {
	f := newFixture(t)

	//顧客の存在より先に検証される
	_, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{CustomerID: 42})

	var ve *usecase.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cannot create an order without items", err.Error())
}

func TestOrderUsecase_CreateOrder_InvalidQuantity(t *testing.T) {
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("REAL", "10.00", true)

	for _, qty := range []int64{0, -3} {
		_, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{
			CustomerID: c.ID,
			Items:      items(item(p.ID, qty)),
		})
		assert.Equal(t, usecase.KindValidation, usecase.KindOf(err), "qty=%d", qty)
	}
	assert.Empty(t, f.store.Orders())
}

func TestOrderUsecase_CreateOrder_InactiveProduct(t *testing.T) {
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("OLD", "10.00", false)

	_, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID: c.ID,
		Items:      items(item(p.ID, 1)),
	})
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))
	assert.Contains(t, err.Error(), "not active")
}

func TestOrderUsecase_CreateOrder_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	p := f.store.SeedProduct("REAL", "10.00", true)

	_, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID: 77,
		Items:      items(item(p.ID, 1)),
	})

	var ne *usecase.NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "Customer", ne.Resource)
	assert.Equal(t, int64(77), ne.ID)
}

func TestOrderUsecase_CreateOrder_TotalsAndPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	red := f.store.SeedProduct("RED", "25.00", true)
	blue := f.store.SeedProduct("BLUE", "19.99", true)

	out, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID: c.ID,
		Items:      items(item(red.ID, 2), item(blue.ID, 3)),
		Notes:      "  leave at dock 4 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "109.97", out.AmountTotal)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "25.00", out.Items[0].UnitPrice)
	assert.Equal(t, "50.00", out.Items[0].Amount)
	assert.Equal(t, "59.97", out.Items[1].Amount)
	require.NotNil(t, out.Notes)
	assert.Equal(t, "leave at dock 4", *out.Notes)
	assert.Equal(t, baseTime, out.DateCreated)
	assert.Nil(t, out.DateShipped)

	//後から値上げしても明細の単価は変わらない
	f.store.SetProductPrice(red.ID, "30.00")

	got, err := f.orders.GetOrder(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.Items[0].UnitPrice)
	assert.Equal(t, "109.97", got.AmountTotal)

	stored := f.store.Orders()
	require.Len(t, stored, 1)
	assert.True(t, stored[0].AmountTotal.Equal(model.SumAmounts(stored[0].Items)))
}

func TestOrderUsecase_CreateOrder_InfraErrorRollsBack(t *testing.T) {
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("REAL", "10.00", true)

	dbErr := errors.New("connection reset")
	f.store.FailOn("orders.create", dbErr)

	_, err := f.orders.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID: c.ID,
		Items:      items(item(p.ID, 1)),
	})
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, usecase.ErrorKind(""), usecase.KindOf(err))
	assert.Empty(t, f.store.Orders())
}

// 同じ顧客への同時注文でも限度額を超えない
func TestOrderUsecase_CreateOrder_ConcurrentSameCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("THIRTY", "30.00", true)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if usecase.KindOf(err) == usecase.KindCreditLimitExceeded {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 7, rejected)
	assert.Equal(t, "90.00", balanceOf(t, f, c.ID))
}

// =====================
// AddItems
// =====================

func TestOrderUsecase_AddItems_ChecksNewTotalOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("TWENTY", "20.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 3))})
	require.NoError(t, err)
	assert.Equal(t, "60.00", order.AmountTotal)

	//60 -> 100 はちょうど限度額（既存の60を二重に数えない）
	out, err := f.orders.AddItems(ctx, order.ID, items(item(p.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, "100.00", out.AmountTotal)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "100.00", balanceOf(t, f, c.ID))

	_, err = f.orders.AddItems(ctx, order.ID, items(item(p.ID, 1)))
	var ce *usecase.CreditLimitExceededError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "120.00", ce.Attempted.StringFixed(2))

	got, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.AmountTotal)
	assert.Len(t, got.Items, 2)
}

func TestOrderUsecase_AddItems_ShippedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)

	f.pub.On("PublishShipment", mock.Anything, orderWithID(order.ID)).Return(event.Message{}, nil).Once()
	_, err = f.orders.ShipOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	_, err = f.orders.AddItems(ctx, order.ID, items(item(p.ID, 1)))
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))

	got, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestOrderUsecase_AddItems_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	p := f.store.SeedProduct("TEN", "10.00", true)

	_, err := f.orders.AddItems(context.Background(), 404, items(item(p.ID, 1)))

	var ne *usecase.NotFoundError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "Order", ne.Resource)
}

// =====================
// ShipOrder
// =====================

func TestOrderUsecase_ShipOrder_SecondShipIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)

	f.pub.On("PublishShipment", mock.Anything, orderWithID(order.ID)).Return(event.Message{ID: "m-1"}, nil).Once()

	f.clock.Advance(time.Hour)
	first, err := f.orders.ShipOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, first.DateShipped)
	assert.Equal(t, baseTime.Add(time.Hour), *first.DateShipped)

	f.clock.Advance(time.Hour)
	second, err := f.orders.ShipOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.DateShipped, second.DateShipped)
	assert.Equal(t, "SHIPPED", second.State)

	f.pub.AssertNumberOfCalls(t, "PublishShipment", 1)

	shipAudits := 0
	for _, a := range f.store.AuditLogs() {
		if a.Action == model.AuditActionShipOrder {
			shipAudits++
		}
	}
	assert.Equal(t, 1, shipAudits)
}

func TestOrderUsecase_ShipOrder_PublishFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 2))})
	require.NoError(t, err)

	pubErr := &event.PublishError{Topic: "order_shipping", Sink: event.SinkProducer, Err: errors.New("broker unavailable")}
	f.pub.On("PublishShipment", mock.Anything, orderWithID(order.ID)).Return(event.Message{}, pubErr).Once()

	_, err = f.orders.ShipOrder(ctx, order.ID, nil)
	require.Error(t, err)
	assert.True(t, usecase.IsPublishFailure(err))

	got, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", got.State)
	assert.Nil(t, got.DateShipped)
	assert.Equal(t, "20.00", balanceOf(t, f, c.ID))

	for _, a := range f.store.AuditLogs() {
		assert.NotEqual(t, model.AuditActionShipOrder, a.Action)
	}
}

func TestOrderUsecase_ShipOrder_ExplicitShippedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "100.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)

	jst := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 3, 2, 18, 30, 0, 0, jst)

	f.pub.On("PublishShipment", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.ShippedAt != nil && o.ShippedAt.Equal(at)
	})).Return(event.Message{}, nil).Once()

	out, err := f.orders.ShipOrder(ctx, order.ID, &at)
	require.NoError(t, err)
	require.NotNil(t, out.DateShipped)
	assert.Equal(t, at.UTC(), *out.DateShipped)

	f.pub.AssertExpectations(t)
}

func TestOrderUsecase_ShipOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.ShipOrder(context.Background(), 12345, nil)
	assert.Equal(t, usecase.KindNotFound, usecase.KindOf(err))
	f.pub.AssertNotCalled(t, "PublishShipment", mock.Anything, mock.Anything)
}

// 追記ログに1行で残り、読み直すとSHIPPEDになっている
func TestOrderUsecase_ShipOrder_WritesFileLog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	dir := t.TempDir()
	pub, err := event.NewFileLogPublisher("order_shipping", dir, quietLogger())
	require.NoError(t, err)
	orders := usecase.NewOrderUsecase(f.store, pub, f.clock, quietLogger())

	c := f.store.SeedCustomer("Acme", "acme@example.com", "500.00")
	p := f.store.SeedProduct("RED", "25.00", true)

	order, err := orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 4))})
	require.NoError(t, err)

	_, err = orders.ShipOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	got, err := orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", got.State)

	lines := readLines(t, pub.LogPath())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"amount_total":"100.00"`)
	assert.Contains(t, lines[0], `"date_shipped":"2024-03-01T09:00:00Z"`)
}

// =====================
// ListOrders
// =====================

func TestOrderUsecase_ListOrders_NewestFirstAndFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acme := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	globex := f.store.SeedCustomer("Globex", "globex@example.com", "1000.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	o1, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: acme.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	o2, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: globex.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	o3, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: acme.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)

	f.pub.On("PublishShipment", mock.Anything, orderWithID(o1.ID)).Return(event.Message{}, nil).Once()
	_, err = f.orders.ShipOrder(ctx, o1.ID, nil)
	require.NoError(t, err)

	all, err := f.orders.ListOrders(ctx, usecase.ListOrdersInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{o3.ID, o2.ID, o1.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	mine, err := f.orders.ListOrdersByCustomer(ctx, acme.ID, false)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, o3.ID, mine[0].ID)

	open, err := f.orders.ListOrdersByCustomer(ctx, acme.ID, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, o3.ID, open[0].ID)

	_, err = f.orders.ListOrdersByCustomer(ctx, 999, false)
	assert.Equal(t, usecase.KindNotFound, usecase.KindOf(err))
}

func TestOrderUsecase_WritesAuditLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)
	_, err = f.orders.AddItems(ctx, order.ID, items(item(p.ID, 2)))
	require.NoError(t, err)

	f.pub.On("PublishShipment", mock.Anything, orderWithID(order.ID)).Return(event.Message{}, nil).Once()
	_, err = f.orders.ShipOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	logs := f.store.AuditLogs()
	require.Len(t, logs, 3)
	assert.Equal(t, model.AuditActionCreateOrder, logs[0].Action)
	assert.Equal(t, model.AuditActionAddOrderItems, logs[1].Action)
	assert.Equal(t, model.AuditActionShipOrder, logs[2].Action)
	for _, l := range logs {
		assert.Equal(t, model.AuditResourceOrder, l.ResourceType)
		assert.Equal(t, order.ID, l.ResourceID)
	}
	assert.JSONEq(t, `{"amount_total":"30.00","items":2}`, logs[1].AfterJSON)
}

func TestOrderUsecase_OrderHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := f.store.SeedCustomer("Acme", "acme@example.com", "1000.00")
	p := f.store.SeedProduct("TEN", "10.00", true)

	order, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)
	other, err := f.orders.CreateOrder(ctx, usecase.CreateOrderInput{CustomerID: c.ID, Items: items(item(p.ID, 1))})
	require.NoError(t, err)
	_, err = f.orders.AddItems(ctx, order.ID, items(item(p.ID, 1)))
	require.NoError(t, err)

	hist, err := f.orders.OrderHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "ORDER_CREATED", hist[0].Action)
	assert.Nil(t, hist[0].Before)
	assert.Equal(t, "ORDER_ITEMS_ADDED", hist[1].Action)
	assert.JSONEq(t, `{"amount_total":"10.00","items":1}`, string(hist[1].Before))

	otherHist, err := f.orders.OrderHistory(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, otherHist, 1)

	_, err = f.orders.OrderHistory(ctx, 9999)
	assert.Equal(t, usecase.KindNotFound, usecase.KindOf(err))
}
