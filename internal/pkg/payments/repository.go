package payments

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitrinelabs/vitrine/app/models"
)

// Repository provides the DB operations used by the webhook service. It is
// constructed over whichever handle the caller holds, so the same methods run
// inside the webhook transaction or standalone.
type Repository interface {
	FindPaymentByReference(reference string) (*models.Payment, error)
	CreatePaymentIfNotExists(payment *models.Payment) (bool, *models.Payment, error)
	UpdatePayment(paymentID uint, updates map[string]interface{}) error
	AppendWebhookLog(entry *models.PaymentWebhookLog) error
	FindOrderByID(orderID uint) (*models.Order, error)
	UpdateOrderStatus(orderID uint, status string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// FindPaymentByReference loads the ledger row for a provider reference,
// row-locked when the dialect supports it so that two concurrent deliveries
// for the same reference serialize on the idempotency check. SQLite (used in
// tests) rejects FOR UPDATE and serializes writers on its own.
func (r *gormRepository) FindPaymentByReference(reference string) (*models.Payment, error) {
	q := r.db
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var payment models.Payment
	err := q.Where("provider_reference = ?", reference).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreatePaymentIfNotExists inserts the ledger row, relying on the unique
// index on provider_reference as the backstop against concurrent creation.
// Returns whether this call created the row plus the stored row either way.
func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, *models.Payment, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_reference"},
		},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Payment
	if err := r.db.Where("provider_reference = ?", payment.ProviderReference).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) UpdatePayment(paymentID uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", paymentID).Updates(updates).Error
}

func (r *gormRepository) AppendWebhookLog(entry *models.PaymentWebhookLog) error {
	return r.db.Create(entry).Error
}

// FindOrderByID loads the order row-locked on dialects that support it, so
// the cancel-after-paid check cannot act on a status a concurrent delivery is
// about to change.
func (r *gormRepository) FindOrderByID(orderID uint) (*models.Order, error) {
	q := r.db
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order models.Order
	err := q.First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) UpdateOrderStatus(orderID uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("status", status).Error
}
