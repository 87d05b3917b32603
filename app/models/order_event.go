package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	OrderEventStatusChanged    = "status_changed"
	OrderEventCancelled        = "cancelled"
	OrderEventPaymentConfirmed = "payment_confirmed"
)

// OrderEvent is the append-only trail of state changes on an order. Rows are
// never updated or deleted.
type OrderEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	Action      string    `gorm:"type:varchar(50);not null;index" json:"action"`
	PayloadJSON string    `gorm:"type:text" json:"payload_json"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// AppendOrderEvent creates one event row for an order. The payload is
// marshalled to JSON; a nil payload stores an empty object.
func AppendOrderEvent(db *gorm.DB, orderID uint, action string, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return db.Create(&OrderEvent{
		OrderID:     orderID,
		Action:      action,
		PayloadJSON: string(raw),
	}).Error
}
