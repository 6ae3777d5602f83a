package model

import "time"

// 注文作成、明細追加、出荷など。
type AuditAction string

const (
	AuditActionCreateCustomer AuditAction = "CUSTOMER_CREATED"
	AuditActionCreateProduct  AuditAction = "PRODUCT_CREATED"
	AuditActionCreateOrder    AuditAction = "ORDER_CREATED"
	AuditActionAddOrderItems  AuditAction = "ORDER_ITEMS_ADDED"
	AuditActionShipOrder      AuditAction = "ORDER_SHIPPED"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceCustomer AuditResourceType = "customer"
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceOrder    AuditResourceType = "order"
)

// 監査ログ。
// 「何を」「どの対象に」「どう変えたか」を、変更と同じトランザクションで残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
