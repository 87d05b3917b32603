package payments

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vitrinelabs/vitrine/app/models"
)

var testDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:payments_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
		&models.Payment{},
		&models.PaymentWebhookLog{},
		&models.DigitalAsset{},
		&models.DigitalEntitlement{},
		&models.EmailTemplate{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// seedOrder creates a user plus a pending order with one physical item
// (qty 3, variant stock 10) and one digital item (qty 1).
func seedOrder(t *testing.T, db *gorm.DB) (*models.Order, *models.ProductVariant, *models.Product) {
	t.Helper()

	user := &models.User{Name: "Ana Souza", Email: "ana@example.com", Password: "x", Status: models.STATUS_ACTIVE}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	physical := &models.Product{Name: "Caneca Vitrine", Slug: "caneca-vitrine", ProductType: models.ProductTypePhysical}
	digital := &models.Product{Name: "E-book Vitrine", Slug: "ebook-vitrine", ProductType: models.ProductTypeDigital}
	if err := db.Create(physical).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if err := db.Create(digital).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	variant := &models.ProductVariant{ProductID: physical.ID, SKU: "CANECA-AZUL", Stock: 10}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("failed to create variant: %v", err)
	}

	order := &models.Order{
		UserID: user.ID,
		Status: models.OrderStatusPending,
		Total:  decimal.RequireFromString("119.70"),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	items := []models.OrderItem{
		{OrderID: order.ID, ProductID: physical.ID, ProductVariantID: &variant.ID, Quantity: 3, Price: decimal.RequireFromString("29.90")},
		{OrderID: order.ID, ProductID: digital.ID, Quantity: 1, Price: decimal.RequireFromString("30.00")},
	}
	if err := db.Create(&items).Error; err != nil {
		t.Fatalf("failed to create order items: %v", err)
	}

	return order, variant, digital
}
