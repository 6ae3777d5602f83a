package event

import (
	"time"

	"orderledger/internal/domain/model"
)

type ShipmentItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

// 出荷イベント。金額・日時はすべて文字列（floatにしない）
type ShipmentPayload struct {
	OrderID     int64          `json:"order_id"`
	CustomerID  int64          `json:"customer_id"`
	AmountTotal string         `json:"amount_total"`
	Notes       *string        `json:"notes"`
	DateCreated string         `json:"date_created"`
	DateShipped *string        `json:"date_shipped"`
	Items       []ShipmentItem `json:"items"`
}

func NewShipmentPayload(o model.Order) ShipmentPayload {
	items := make([]ShipmentItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ShipmentItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: model.FormatMoney(it.UnitPrice),
			Amount:    model.FormatMoney(it.Amount),
		})
	}

	var shipped *string
	if o.ShippedAt != nil {
		s := FormatTime(*o.ShippedAt)
		shipped = &s
	}

	return ShipmentPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		AmountTotal: model.FormatMoney(o.AmountTotal),
		Notes:       o.Notes,
		DateCreated: FormatTime(o.CreatedAt),
		DateShipped: shipped,
		Items:       items,
	}
}

// UTCのRFC3339（ナノ秒まで）
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
