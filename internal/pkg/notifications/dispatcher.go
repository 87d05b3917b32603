package notifications

import (
	"fmt"
	"log"
	"strconv"

	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine/app/models"
	"github.com/vitrinelabs/vitrine/internal/pkg/env"
	"github.com/vitrinelabs/vitrine/internal/pkg/mail"
)

// DispatchOrderStatusEmail sends the transactional email matching an order's
// committed status. It is invoked after the webhook transaction commits and is
// strictly best-effort: every failure is logged and swallowed, nothing here
// may fail the webhook response or roll back state.
func DispatchOrderStatusEmail(db *gorm.DB, orderID uint, status string) {
	to, subject, body, err := buildOrderEmail(db, orderID, status)
	if err != nil {
		log.Printf("notifications: skipping email for order %d: %v", orderID, err)
		return
	}

	go func() {
		if err := mail.SendMail(to, subject, body); err != nil {
			log.Printf("notifications: failed to send %s email for order %d: %v", status, orderID, err)
		}
	}()
}

// buildOrderEmail resolves the template and renders it against the order.
func buildOrderEmail(db *gorm.DB, orderID uint, status string) (to, subject, body string, err error) {
	var key string
	switch status {
	case models.OrderStatusPaid:
		key = models.EmailTemplateOrderPaid
	case models.OrderStatusCancelled, models.OrderStatusRefunded:
		key = models.EmailTemplateOrderCancelled
	default:
		return "", "", "", fmt.Errorf("no template for order status %q", status)
	}

	var order models.Order
	if err := db.Preload("User").Preload("Items").First(&order, orderID).Error; err != nil {
		return "", "", "", err
	}
	if order.User.Email == "" {
		return "", "", "", fmt.Errorf("order %d has no recipient email", orderID)
	}

	tpl, ok := mail.LookupTemplate(db, key)
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", key)
	}

	statusLabel := "cancelado"
	if status == models.OrderStatusRefunded {
		statusLabel = "reembolsado"
	}

	baseURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	vars := map[string]string{
		"name":       order.User.Name,
		"order_id":   strconv.FormatUint(uint64(order.ID), 10),
		"total":      "R$ " + order.Total.StringFixed(2),
		"item_count": strconv.Itoa(len(order.Items)),
		"order_url":  fmt.Sprintf("%s/orders/%d", baseURL, order.ID),
		"status":     statusLabel,
	}

	return order.User.Email, mail.Render(tpl.Subject, vars), mail.Render(tpl.Body, vars), nil
}
