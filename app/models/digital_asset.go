package models

import "time"

// DigitalAsset is a downloadable resource tied to a digital product. Assets
// may be lazily provisioned by the fulfillment workflow when the catalog side
// never configured one.
type DigitalAsset struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	StoragePath string    `gorm:"type:varchar(255)" json:"storage_path"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DigitalEntitlement grants a user access to one digital asset. At most one
// row exists per (user, asset) pair; the unique index backs the
// check-then-create in the fulfillment workflow.
type DigitalEntitlement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:ux_entitlements_user_asset,priority:1" json:"user_id"`
	DigitalAssetID uint      `gorm:"not null;uniqueIndex:ux_entitlements_user_asset,priority:2" json:"digital_asset_id"`
	OrderID        *uint     `gorm:"index" json:"order_id,omitempty"`
	DownloadToken  string    `gorm:"type:varchar(36);uniqueIndex" json:"download_token"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
