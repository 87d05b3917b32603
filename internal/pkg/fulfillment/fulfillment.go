package fulfillment

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitrinelabs/vitrine/app/models"
)

// lockForUpdate row-locks reads on dialects that support FOR UPDATE. SQLite
// (used in tests) rejects it and serializes writers on its own.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "mysql" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// MarkPaidInput identifies the order to fulfill, either directly or through
// the payment ledger row that references it.
type MarkPaidInput struct {
	OrderID           uint
	PaymentID         uint
	ProviderReference string
	PaidAt            time.Time
}

// MarkOrderPaid transitions an order to paid and applies the fulfillment side
// effects: per-item stock decrement (clamped at zero), digital entitlement
// issuance (at most one per user/asset pair) and one payment_confirmed order
// event.
//
// The db handle may be an open transaction or a root handle; the function
// never opens a transaction of its own, so callers compose it into their own
// atomic boundary or run it standalone. It is idempotent: an already-paid
// order is returned unchanged with fulfilled=false, and repeated invocations
// never decrement stock or grant entitlements twice.
//
// Returns the order (nil when none resolves), whether fulfillment ran, and
// any error. On error the caller's transaction must abort, partial stock or
// entitlement effects are data corruption.
func MarkOrderPaid(db *gorm.DB, in MarkPaidInput) (*models.Order, bool, error) {
	orderID := in.OrderID
	if orderID == 0 && in.PaymentID != 0 {
		var payment models.Payment
		err := db.First(&payment, in.PaymentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if payment.OrderID == nil {
			return nil, false, nil
		}
		orderID = *payment.OrderID
	}
	if orderID == 0 {
		return nil, false, nil
	}

	// The order row is locked so a concurrent delivery for the same order
	// (a different provider reference, so the payment-row lock does not
	// serialize them) cannot read a stale status past the idempotency guard.
	var order models.Order
	err := lockForUpdate(db).Preload("Items").Preload("Items.Product").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// Idempotency guard: duplicate webhooks, retried transactions and manual
	// admin re-triggers all land here.
	if order.IsPaid() {
		return &order, false, nil
	}

	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":  models.OrderStatusPaid,
		"paid_at": paidAt,
	}).Error; err != nil {
		return nil, false, err
	}
	order.Status = models.OrderStatusPaid
	order.PaidAt = &paidAt

	for i := range order.Items {
		item := &order.Items[i]
		if err := decrementStock(db, item); err != nil {
			return nil, false, err
		}
		if item.Product.IsDigital() {
			if err := issueEntitlement(db, &order, item); err != nil {
				return nil, false, err
			}
		}
	}

	if err := models.AppendOrderEvent(db, order.ID, models.OrderEventPaymentConfirmed, map[string]interface{}{
		"provider_reference": in.ProviderReference,
		"paid_at":            paidAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, false, err
	}

	return &order, true, nil
}

// decrementStock applies the stock side effect for one line item. Stock is
// clamped at zero, never negative. Items without a variant are a no-op since
// there is no product-level stock tracking.
func decrementStock(db *gorm.DB, item *models.OrderItem) error {
	if item.ProductVariantID == nil {
		log.Printf("fulfillment: order item %d has no variant, skipping stock decrement", item.ID)
		return nil
	}

	// Locked read: two paid orders sharing this variant must serialize here,
	// or both snapshot the same stock and one decrement is lost.
	var variant models.ProductVariant
	if err := lockForUpdate(db).First(&variant, *item.ProductVariantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("fulfillment: variant %d for order item %d not found", *item.ProductVariantID, item.ID)
			return nil
		}
		return err
	}

	newStock := variant.Stock - item.Quantity
	if newStock < 0 {
		newStock = 0
	}
	if err := db.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).
		Update("stock", newStock).Error; err != nil {
		return err
	}
	if newStock == 0 {
		log.Printf("fulfillment: variant %d (sku %s) is out of stock", variant.ID, variant.SKU)
	}
	return nil
}

// issueEntitlement ensures the buyer holds exactly one entitlement for the
// product's digital asset, provisioning a placeholder asset when the catalog
// never configured one.
func issueEntitlement(db *gorm.DB, order *models.Order, item *models.OrderItem) error {
	var asset models.DigitalAsset
	err := db.Where("product_id = ?", item.ProductID).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		asset = models.DigitalAsset{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
		}
		if err := db.Create(&asset).Error; err != nil {
			return err
		}
		// Missing catalog configuration: the admin side never attached an
		// asset to this digital product.
		log.Printf("fulfillment: auto-provisioned placeholder asset %d for product %d", asset.ID, item.ProductID)
	} else if err != nil {
		return err
	}

	var existing models.DigitalEntitlement
	err = db.Where("user_id = ? AND digital_asset_id = ?", order.UserID, asset.ID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Create(&models.DigitalEntitlement{
		UserID:         order.UserID,
		DigitalAssetID: asset.ID,
		OrderID:        &order.ID,
		DownloadToken:  uuid.NewString(),
	}).Error
}
