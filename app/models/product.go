package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProductTypePhysical = "physical"
	ProductTypeDigital  = "digital"
)

type Product struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(200);not null" json:"name"`
	Slug        string           `gorm:"type:varchar(200);uniqueIndex" json:"slug"`
	ProductType string           `gorm:"type:varchar(20);not null;default:'physical';index" json:"product_type"`
	Price       decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	IsActive    bool             `gorm:"default:true;index" json:"is_active"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// IsDigital reports whether fulfillment must issue a digital entitlement.
func (p *Product) IsDigital() bool {
	return p.ProductType == ProductTypeDigital
}

// ProductVariant carries per-variant inventory. Stock never goes below zero;
// decrements are clamped by the fulfillment workflow.
type ProductVariant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	SKU       string    `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	Name      string    `gorm:"type:varchar(200)" json:"name"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
