package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"orderledger/internal/domain/model"
	"orderledger/internal/event"
	repo "orderledger/internal/repository"

	"github.com/labstack/gommon/log"
)

// 出荷イベントの送り先
type ShipmentPublisher interface {
	PublishShipment(ctx context.Context, order model.Order) (event.Message, error)
}

// 注文のライフサイクル（作成・明細追加・出荷）
// AmountTotal / Amount を書くのはここだけ
type OrderUsecase struct {
	tx        repo.TransactionManager
	ledger    *Ledger
	credit    *CreditGuard
	builder   *OrderBuilder
	publisher ShipmentPublisher
	clock     Clock
	logger    *log.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, publisher ShipmentPublisher, clock Clock, logger *log.Logger) *OrderUsecase {
	if logger == nil {
		logger = log.New("usecase")
	}
	ledger := NewLedger()
	return &OrderUsecase{
		tx:        tx,
		ledger:    ledger,
		credit:    NewCreditGuard(ledger),
		builder:   NewOrderBuilder(),
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

type CreateOrderInput struct {
	CustomerID int64
	Items      []ItemRef
	Notes      string
}

type OrderItemOutput struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	CustomerID  int64             `json:"customer_id"`
	State       string            `json:"state"`
	AmountTotal string            `json:"amount_total"`
	Notes       *string           `json:"notes"`
	DateCreated time.Time         `json:"date_created"`
	DateShipped *time.Time        `json:"date_shipped"`
	Items       []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	if in.CustomerID <= 0 {
		return OrderOutput{}, NewValidationError("customer_id is required")
	}
	if err := validateItemRefs(in.Items); err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//顧客行をロック。同じ顧客の注文作成はcommitまで待たされる
		customer, err := u.lockCustomer(ctx, r, in.CustomerID)
		if err != nil {
			return err
		}

		items, total, err := u.builder.BuildItems(ctx, r, in.Items)
		if err != nil {
			return err
		}

		//合計が決まった後、保存する前に与信チェック
		if err := u.credit.EnsureCredit(ctx, r, customer, total); err != nil {
			return err
		}

		order := model.Order{
			CustomerID: customer.ID,
			Notes:      normalizeNotes(in.Notes),
			CreatedAt:  u.clock.Now().UTC(),
			Items:      items,
		}
		order.RecalculateTotal()

		created, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}

		if err := writeAudit(ctx, r, model.AuditLog{
			Action:       model.AuditActionCreateOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   created.ID,
			CreatedAt:    created.CreatedAt,
		}, nil, map[string]any{
			"customer_id":  created.CustomerID,
			"amount_total": model.FormatMoney(created.AmountTotal),
			"items":        len(created.Items),
		}); err != nil {
			return err
		}

		out = toOrderOutput(created)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 既存の注文に明細を足す。与信は差分ではなく新しい合計で判定し直す
func (u *OrderUsecase) AddItems(ctx context.Context, orderID int64, refs []ItemRef) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid order id")
	}
	if err := validateItemRefs(refs); err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := u.findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		//出荷済みは終端
		if !order.IsOpen() {
			return NewValidationError("cannot add items to shipped order %d", order.ID)
		}

		customer, err := u.lockCustomer(ctx, r, order.CustomerID)
		if err != nil {
			return err
		}

		// 顧客ロック待ちの間に他txが明細を足しているかもしれないので読み直す
		order, err = u.lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if !order.IsOpen() {
			return NewValidationError("cannot add items to shipped order %d", order.ID)
		}

		added, _, err := u.builder.BuildItems(ctx, r, refs)
		if err != nil {
			return err
		}

		before := order
		order.Items = append(append([]model.OrderItem{}, order.Items...), added...)
		newTotal := order.RecalculateTotal()

		if err := u.credit.EnsureCreditForOrder(ctx, r, customer, before, newTotal); err != nil {
			return err
		}

		created, err := r.OrderItems().CreateBulk(ctx, order.ID, added)
		if err != nil {
			return err
		}
		order.Items = append(append([]model.OrderItem{}, before.Items...), created...)
		order.RecalculateTotal()

		if err := r.Orders().UpdateTotal(ctx, order.ID, order.AmountTotal); err != nil {
			return err
		}

		if err := writeAudit(ctx, r, model.AuditLog{
			Action:       model.AuditActionAddOrderItems,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			CreatedAt:    u.clock.Now().UTC(),
		}, map[string]any{
			"amount_total": model.FormatMoney(before.AmountTotal),
			"items":        len(before.Items),
		}, map[string]any{
			"amount_total": model.FormatMoney(order.AmountTotal),
			"items":        len(order.Items),
		}); err != nil {
			return err
		}

		out = toOrderOutput(order)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// OPEN → SHIPPED。出荷済みなら何もせず今の状態を返す（再出荷・再送しない）
// イベントを記録できなければ出荷ごとrollbackする
func (u *OrderUsecase) ShipOrder(ctx context.Context, orderID int64, shippedAt *time.Time) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := u.lockOrder(ctx, r, orderID)
		if err != nil {
			return err
		}

		if !order.IsOpen() {
			out = u.shipNoop(order)
			return nil
		}

		at := u.clock.Now().UTC()
		if shippedAt != nil {
			at = shippedAt.UTC()
		}

		// shipped_at IS NULL 条件付き。先に出荷された場合はErrNotFound
		err = r.Orders().MarkShipped(ctx, order.ID, at)
		if errors.Is(err, repo.ErrNotFound) {
			current, ferr := u.findOrder(ctx, r, orderID)
			if ferr != nil {
				return ferr
			}
			if !current.IsOpen() {
				out = u.shipNoop(current)
				return nil
			}
		}
		if err != nil {
			return err
		}
		order.ShippedAt = &at

		if err := writeAudit(ctx, r, model.AuditLog{
			Action:       model.AuditActionShipOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			CreatedAt:    at,
		}, map[string]any{
			"state": model.OrderStateOpen,
		}, map[string]any{
			"state":        model.OrderStateShipped,
			"date_shipped": event.FormatTime(at),
		}); err != nil {
			return err
		}

		if _, err := u.publisher.PublishShipment(ctx, order); err != nil {
			return err
		}

		out = toOrderOutput(order)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type ListOrdersInput struct {
	CustomerID *int64
	OpenOnly   bool
}

// 新しい順
func (u *OrderUsecase) ListOrders(ctx context.Context, in ListOrdersInput) ([]OrderOutput, error) {
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if in.CustomerID != nil {
			if _, err := u.ledger.GetCustomer(ctx, r, *in.CustomerID); err != nil {
				return err
			}
		}

		orders, err := r.Orders().List(ctx, repo.OrderListFilter{
			CustomerID: in.CustomerID,
			OpenOnly:   in.OpenOnly,
		})
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			outs = append(outs, toOrderOutput(o))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 顧客の注文一覧（顧客がいなければNotFound）
func (u *OrderUsecase) ListOrdersByCustomer(ctx context.Context, customerID int64, openOnly bool) ([]OrderOutput, error) {
	if customerID <= 0 {
		return []OrderOutput{}, NewValidationError("invalid customer id")
	}
	return u.ListOrders(ctx, ListOrdersInput{CustomerID: &customerID, OpenOnly: openOnly})
}

// 注文の変更履歴（作成・明細追加・出荷）を古い順で
func (u *OrderUsecase) OrderHistory(ctx context.Context, orderID int64) ([]AuditEntryOutput, error) {
	if orderID <= 0 {
		return []AuditEntryOutput{}, NewValidationError("invalid order id")
	}

	var outs []AuditEntryOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := u.findOrder(ctx, r, orderID); err != nil {
			return err
		}

		logs, err := r.AuditLogs().ListByResource(ctx, model.AuditResourceOrder, orderID, 0)
		if err != nil {
			return err
		}
		outs = make([]AuditEntryOutput, 0, len(logs))
		for _, l := range logs {
			outs = append(outs, toAuditEntryOutput(l))
		}
		return nil
	})
	if err != nil {
		return []AuditEntryOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) findOrder(ctx context.Context, r repo.TxRepos, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, &NotFoundError{Resource: "Order", ID: orderID}
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (u *OrderUsecase) lockOrder(ctx context.Context, r repo.TxRepos, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, &NotFoundError{Resource: "Order", ID: orderID}
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 出荷済みへの再出荷。イベントは再送しない
func (u *OrderUsecase) shipNoop(order model.Order) OrderOutput {
	u.logger.Infoj(log.JSON{
		"event":        "ship_noop",
		"order_id":     order.ID,
		"date_shipped": event.FormatTime(*order.ShippedAt),
	})
	return toOrderOutput(order)
}

func (u *OrderUsecase) lockCustomer(ctx context.Context, r repo.TxRepos, customerID int64) (model.Customer, error) {
	c, err := r.Customers().FindByIDForUpdate(ctx, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Customer{}, &NotFoundError{Resource: "Customer", ID: customerID}
	}
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func normalizeNotes(notes string) *string {
	n := strings.TrimSpace(notes)
	if n == "" {
		return nil
	}
	return &n
}

func toOrderOutput(o model.Order) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemOutput{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: model.FormatMoney(it.UnitPrice),
			Amount:    model.FormatMoney(it.Amount),
		})
	}

	return OrderOutput{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		State:       string(o.State()),
		AmountTotal: model.FormatMoney(o.AmountTotal),
		Notes:       o.Notes,
		DateCreated: o.CreatedAt,
		DateShipped: o.ShippedAt,
		Items:       items,
	}
}
