package repository

import (
	"github.com/vitrinelabs/vitrine/app/models"
	"gorm.io/gorm"
)

// OrderRepository defines the order read/event operations used by the
// back-office controllers.
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	GetWithItems(id uint) (*models.Order, error)
	GetEvents(orderID uint) ([]models.OrderEvent, error)
	ListRecent(limit int) ([]models.Order, error)
}

// PaymentRepository defines ledger inspection operations.
type PaymentRepository interface {
	GetByReference(reference string) (*models.Payment, error)
	GetWebhookLogs(reference string) ([]models.PaymentWebhookLog, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Order   OrderRepository
	Payment PaymentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:   NewOrderRepository(db),
		Payment: NewPaymentRepository(db),
	}
}
