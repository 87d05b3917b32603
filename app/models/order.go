package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusFulfilled  = "fulfilled"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

type Order struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	User      User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	PaidAt    *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsPaid reports whether the order has reached the paid state.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// OrderItem is a line item with a price snapshot taken at order time. The
// webhook subsystem only reads items; its single side effect is the stock
// decrement on the referenced variant.
type OrderItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;index" json:"order_id"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	Product          Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductVariantID *uint           `gorm:"index" json:"product_variant_id,omitempty"`
	Quantity         int             `gorm:"not null;default:1" json:"quantity"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
