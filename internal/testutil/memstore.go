package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderledger/internal/domain/model"
	repo "orderledger/internal/repository"

	"github.com/shopspring/decimal"
)

// テスト用のインメモリTransactionManager。
// WithinTxはスナップショットに書き、fnがnilを返したときだけ反映する（rollbackあり）。
// トランザクションは1本ずつ直列に流れる。
type MemStore struct {
	mu    sync.Mutex
	state *memState

	// "orders.create" などの操作名 -> 返すエラー
	failures map[string]error
}

type memState struct {
	nextID    int64
	customers map[int64]model.Customer
	products  map[int64]model.Product
	orders    map[int64]model.Order
	audits    []model.AuditLog
}

func NewMemStore() *MemStore {
	return &MemStore{
		state: &memState{
			customers: map[int64]model.Customer{},
			products:  map[int64]model.Product{},
			orders:    map[int64]model.Order{},
		},
		failures: map[string]error{},
	}
}

// opが呼ばれたらerrを返すようにする
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state.clone()
	if err := fn(&memTx{st: snap, failures: s.failures}); err != nil {
		return err
	}
	s.state = snap
	return nil
}

func (st *memState) clone() *memState {
	c := &memState{
		nextID:    st.nextID,
		customers: make(map[int64]model.Customer, len(st.customers)),
		products:  make(map[int64]model.Product, len(st.products)),
		orders:    make(map[int64]model.Order, len(st.orders)),
		audits:    append([]model.AuditLog{}, st.audits...),
	}
	for k, v := range st.customers {
		c.customers[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.orders {
		v.Items = append([]model.OrderItem{}, v.Items...)
		c.orders[k] = v
	}
	return c
}

func (st *memState) id() int64 {
	st.nextID++
	return st.nextID
}

// ---- テストから直接使うヘルパー ----

func (s *MemStore) SeedCustomer(name string, email string, limit string) model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Customer{
		ID:          s.state.id(),
		Name:        name,
		Email:       email,
		CreditLimit: decimal.RequireFromString(limit),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.state.customers[c.ID] = c
	return c
}

func (s *MemStore) SeedProduct(sku string, price string, active bool) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Product{
		ID:        s.state.id(),
		SKU:       sku,
		Name:      sku,
		UnitPrice: decimal.RequireFromString(price),
		IsActive:  active,
	}
	s.state.products[p.ID] = p
	return p
}

// 商品の現在価格を変える（注文済み明細の単価は変わらないことの確認用）
func (s *MemStore) SetProductPrice(id int64, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.products[id]
	p.UnitPrice = decimal.RequireFromString(price)
	s.state.products[id] = p
}

func (s *MemStore) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.state.orders))
	for _, o := range s.state.orders {
		o.Items = append([]model.OrderItem{}, o.Items...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) OrderItemCount() int {
	n := 0
	for _, o := range s.Orders() {
		n += len(o.Items)
	}
	return n
}

func (s *MemStore) AuditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog{}, s.state.audits...)
}

// ---- TxRepos ----

type memTx struct {
	st       *memState
	failures map[string]error
}

func (t *memTx) fail(op string) error {
	return t.failures[op]
}

func (t *memTx) Customers() repo.CustomerRepository   { return memCustomers{t} }
func (t *memTx) Products() repo.ProductRepository     { return memProducts{t} }
func (t *memTx) Orders() repo.OrderRepository         { return memOrders{t} }
func (t *memTx) OrderItems() repo.OrderItemRepository { return memOrderItems{t} }
func (t *memTx) AuditLogs() repo.AuditLogRepository   { return memAudits{t} }

type memCustomers struct{ t *memTx }

func (m memCustomers) FindByID(ctx context.Context, id int64) (model.Customer, error) {
	if err := m.t.fail("customers.find"); err != nil {
		return model.Customer{}, err
	}
	c, ok := m.t.st.customers[id]
	if !ok {
		return model.Customer{}, repo.ErrNotFound
	}
	return c, nil
}

func (m memCustomers) FindByIDForUpdate(ctx context.Context, id int64) (model.Customer, error) {
	return m.FindByID(ctx, id)
}

func (m memCustomers) FindByEmail(ctx context.Context, email string) (model.Customer, bool, error) {
	for _, c := range m.t.st.customers {
		if c.Email == email {
			return c, true, nil
		}
	}
	return model.Customer{}, false, nil
}

func (m memCustomers) ListByName(ctx context.Context) ([]model.Customer, error) {
	out := make([]model.Customer, 0, len(m.t.st.customers))
	for _, c := range m.t.st.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m memCustomers) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	if err := m.t.fail("customers.create"); err != nil {
		return model.Customer{}, err
	}
	for _, existing := range m.t.st.customers {
		if existing.Email == c.Email {
			return model.Customer{}, repo.ErrDuplicate
		}
	}
	c.ID = m.t.st.id()
	m.t.st.customers[c.ID] = c
	return c, nil
}

func (m memCustomers) OpenBalance(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	if err := m.t.fail("customers.open_balance"); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, o := range m.t.st.orders {
		if o.CustomerID == customerID && o.ShippedAt == nil {
			total = total.Add(o.AmountTotal)
		}
	}
	return total, nil
}

type memProducts struct{ t *memTx }

func (m memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := m.t.st.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m memProducts) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if err := m.t.fail("products.find_by_ids"); err != nil {
		return nil, err
	}
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := m.t.st.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memProducts) FindBySKU(ctx context.Context, sku string) (model.Product, bool, error) {
	for _, p := range m.t.st.products {
		if p.SKU == sku {
			return p, true, nil
		}
	}
	return model.Product{}, false, nil
}

func (m memProducts) ListActive(ctx context.Context) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range m.t.st.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	for _, existing := range m.t.st.products {
		if existing.SKU == p.SKU {
			return model.Product{}, repo.ErrDuplicate
		}
	}
	p.ID = m.t.st.id()
	m.t.st.products[p.ID] = p
	return p, nil
}

type memOrders struct{ t *memTx }

func (m memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := m.t.st.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	o.Items = append([]model.OrderItem{}, o.Items...)
	return o, nil
}

func (m memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return m.FindByID(ctx, orderID)
}

func (m memOrders) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range m.t.st.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.OpenOnly && o.ShippedAt != nil {
			continue
		}
		o.Items = append([]model.OrderItem{}, o.Items...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m memOrders) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := m.t.fail("orders.create"); err != nil {
		return model.Order{}, err
	}
	order.ID = m.t.st.id()
	items := make([]model.OrderItem, len(order.Items))
	for i, it := range order.Items {
		it.ID = m.t.st.id()
		it.OrderID = order.ID
		items[i] = it
	}
	order.Items = items
	m.t.st.orders[order.ID] = order
	return order, nil
}

func (m memOrders) UpdateTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	o, ok := m.t.st.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.AmountTotal = total
	m.t.st.orders[orderID] = o
	return nil
}

func (m memOrders) MarkShipped(ctx context.Context, orderID int64, shippedAt time.Time) error {
	o, ok := m.t.st.orders[orderID]
	if !ok || o.ShippedAt != nil {
		return repo.ErrNotFound
	}
	at := shippedAt
	o.ShippedAt = &at
	m.t.st.orders[orderID] = o
	return nil
}

type memOrderItems struct{ t *memTx }

func (m memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	if err := m.t.fail("order_items.create"); err != nil {
		return nil, err
	}
	o, ok := m.t.st.orders[orderID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	created := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.ID = m.t.st.id()
		it.OrderID = orderID
		created[i] = it
	}
	o.Items = append(o.Items, created...)
	m.t.st.orders[orderID] = o
	return created, nil
}

func (m memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	o, ok := m.t.st.orders[orderID]
	if !ok {
		return []model.OrderItem{}, nil
	}
	return append([]model.OrderItem{}, o.Items...), nil
}

type memAudits struct{ t *memTx }

func (m memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = m.t.st.id()
	m.t.st.audits = append(m.t.st.audits, log)
	return nil
}

func (m memAudits) ListByResource(ctx context.Context, resourceType model.AuditResourceType, resourceID int64, limit int) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for _, a := range m.t.st.audits {
		if a.ResourceType != resourceType || a.ResourceID != resourceID {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// 固定時刻（Advanceで進める）
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
