package models

import "time"

// AuditLog is the append-only security/forensic trail. Rows exist even for
// requests that are later rejected, so the receipt of a webhook is traceable
// independently of its processing outcome.
type AuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Action       string    `gorm:"type:varchar(100);not null;index" json:"action"`
	Actor        string    `gorm:"type:varchar(100)" json:"actor"`
	IP           string    `gorm:"type:varchar(45)" json:"ip"`
	MetadataJSON string    `gorm:"type:text" json:"metadata_json"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
