package repository

import (
	"github.com/vitrinelabs/vitrine/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// GetByID retrieves an order by its ID
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetWithItems retrieves an order with its line items and user preloaded
func (r *orderRepository) GetWithItems(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("User").Preload("Items").Preload("Items.Product").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetEvents retrieves the append-only event trail of an order
func (r *orderRepository) GetEvents(orderID uint) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// ListRecent retrieves the most recently created orders
func (r *orderRepository) ListRecent(limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var orders []models.Order
	err := r.db.Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}
