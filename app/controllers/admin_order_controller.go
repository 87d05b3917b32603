package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine/app/models"
	"github.com/vitrinelabs/vitrine/app/repository"
	"github.com/vitrinelabs/vitrine/internal/pkg/database"
	"github.com/vitrinelabs/vitrine/internal/pkg/fulfillment"
	"github.com/vitrinelabs/vitrine/internal/pkg/notifications"
)

// AdminOrderController serves the back-office order endpoints using the
// repository pattern.
type AdminOrderController struct {
	repos *repository.Repositories
}

// NewAdminOrderController creates a new admin order controller with repository dependencies
func NewAdminOrderController(repos *repository.Repositories) *AdminOrderController {
	return &AdminOrderController{
		repos: repos,
	}
}

var adminOrderController *AdminOrderController

// InitializeAdminOrderController wires the controller to the global database
func InitializeAdminOrderController() {
	repository.InitializeFactory(database.GetDB())
	adminOrderController = NewAdminOrderController(repository.GetGlobalRepositories())
}

// GetAdminOrderController returns the initialized controller instance
func GetAdminOrderController() *AdminOrderController {
	if adminOrderController == nil {
		panic("Admin order controller not initialized. Call InitializeAdminOrderController first.")
	}
	return adminOrderController
}

// HandleMarkOrderPaid manually re-triggers the fulfillment workflow for an
// order. Safe to call repeatedly; an already-paid order is a no-op.
func (oc *AdminOrderController) HandleMarkOrderPaid(c *fiber.Ctx) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_order_id"})
	}

	var order *models.Order
	var fulfilled bool
	txErr := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var err error
		order, fulfilled, err = fulfillment.MarkOrderPaid(tx, fulfillment.MarkPaidInput{
			OrderID:           orderID,
			ProviderReference: "admin:manual",
		})
		return err
	})
	if txErr != nil {
		log.Printf("admin: mark order %d paid failed: %v", orderID, txErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mark_paid_failed"})
	}
	if order == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
	}

	if fulfilled {
		notifications.DispatchOrderStatusEmail(database.GetDB(), order.ID, order.Status)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":        true,
		"order_id":  order.ID,
		"status":    order.Status,
		"fulfilled": fulfilled,
	})
}

// HandleOrderEvents returns the append-only event trail of an order.
func (oc *AdminOrderController) HandleOrderEvents(c *fiber.Ctx) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_order_id"})
	}

	if _, err := oc.repos.Order.GetByID(orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	events, err := oc.repos.Order.GetEvents(orderID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "events": events})
}

// HandlePaymentByReference returns the ledger row and its delivery log.
func (oc *AdminOrderController) HandlePaymentByReference(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_reference"})
	}

	payment, err := oc.repos.Payment.GetByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "payment_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "payment_lookup_failed"})
	}

	logs, err := oc.repos.Payment.GetWebhookLogs(reference)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "log_lookup_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "payment": payment, "webhook_logs": logs})
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || v == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(v), nil
}
