package models

import "time"

// PaymentWebhookLog is the append-only audit trail of webhook deliveries.
// One row per delivery, duplicates included; rows are never updated.
type PaymentWebhookLog struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Provider          string    `gorm:"type:varchar(20);not null;index" json:"provider"`
	ProviderReference string    `gorm:"type:varchar(191);not null;index" json:"provider_reference"`
	Status            string    `gorm:"type:varchar(50);not null" json:"status"`
	RawBody           string    `gorm:"type:longtext;not null" json:"raw_body"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
