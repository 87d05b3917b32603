package repository

import (
	"github.com/vitrinelabs/vitrine/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByReference retrieves a payment by its provider reference
func (r *paymentRepository) GetByReference(reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("provider_reference = ?", reference).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetWebhookLogs retrieves all webhook deliveries recorded for a reference
func (r *paymentRepository) GetWebhookLogs(reference string) ([]models.PaymentWebhookLog, error) {
	var logs []models.PaymentWebhookLog
	err := r.db.Where("provider_reference = ?", reference).
		Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, err
}
