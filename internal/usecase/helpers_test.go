package usecase_test

import (
	"bufio"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"orderledger/internal/domain/model"
	"orderledger/internal/event"
	"orderledger/internal/testutil"
	"orderledger/internal/usecase"
	"orderledger/internal/validator"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/mock"
)

// =====================
// ShipmentPublisher モック
// =====================

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishShipment(ctx context.Context, order model.Order) (event.Message, error) {
	args := m.Called(ctx, order)
	msg, _ := args.Get(0).(event.Message)
	return msg, args.Error(1)
}

var _ usecase.ShipmentPublisher = (*PublisherMock)(nil)

// =====================
// helper
// =====================

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *testutil.MemStore
	clock   *testutil.FixedClock
	pub     *PublisherMock
	orders  *usecase.OrderUsecase
	catalog *usecase.CatalogUsecase
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewMemStore()
	clock := testutil.NewFixedClock(baseTime)
	pub := new(PublisherMock)

	return &fixture{
		store:   store,
		clock:   clock,
		pub:     pub,
		orders:  usecase.NewOrderUsecase(store, pub, clock, quietLogger()),
		catalog: usecase.NewCatalogUsecase(store, validator.NewCatalogValidator(), clock),
	}
}

func items(refs ...usecase.ItemRef) []usecase.ItemRef {
	return refs
}

func item(productID int64, qty int64) usecase.ItemRef {
	return usecase.ItemRef{ProductID: productID, Quantity: qty}
}

// 顧客の残高（未出荷合計）を文字列で
func balanceOf(t *testing.T, f *fixture, customerID int64) string {
	t.Helper()
	c, err := f.catalog.GetCustomer(context.Background(), customerID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	return c.Balance
}

func orderWithID(id int64) any {
	return mock.MatchedBy(func(o model.Order) bool { return o.ID == id })
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	fh, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer fh.Close()

	var lines []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return lines
}
