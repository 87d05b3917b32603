package models

import "time"

const (
	EmailTemplateOrderPaid      = "order_paid"
	EmailTemplateOrderCancelled = "order_cancelled"
)

// EmailTemplate is an admin-overridable mail template looked up by key.
// When no active row exists for a key the built-in default is used.
type EmailTemplate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TemplateKey string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"template_key"`
	Subject     string    `gorm:"type:varchar(255);not null" json:"subject"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
