package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const PaymentProviderPagSeguro = "pagseguro"

// Payment is the ledger row for one provider payment attempt. The provider
// reference is the idempotency key: globally unique, assigned by the provider,
// and used to deduplicate webhook redeliveries. Rows are never deleted.
type Payment struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	Provider          string           `gorm:"type:varchar(20);not null;index" json:"provider"`
	ProviderReference string           `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_provider_reference" json:"provider_reference"`
	Status            string           `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount            *decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
	OrderID           *uint            `gorm:"index" json:"order_id,omitempty"`
	PayloadJSON       string           `gorm:"type:longtext" json:"payload_json"`
	LastWebhookAt     *time.Time       `gorm:"type:timestamp;default:null" json:"last_webhook_at,omitempty"`
	CreatedAt         time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
