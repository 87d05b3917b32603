package controllers

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vitrinelabs/vitrine/app/models"
	"github.com/vitrinelabs/vitrine/internal/pkg/audit"
	"github.com/vitrinelabs/vitrine/internal/pkg/database"
	"github.com/vitrinelabs/vitrine/internal/pkg/env"
	"github.com/vitrinelabs/vitrine/internal/pkg/notifications"
	"github.com/vitrinelabs/vitrine/internal/pkg/payments"
)

// PagSeguroSignatureHeader carries the hex HMAC-SHA256 of the raw body.
const PagSeguroSignatureHeader = "X-PagSeguro-Signature"

// HandlePagSeguroWebhook receives payment notifications from PagSeguro.
// Processing order matters: configuration check, signature over the raw
// bytes, parse, then the single atomic ledger transaction. The notification
// email goes out only after the transaction committed.
func HandlePagSeguroWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	secret := env.GetEnv("PAGSEGURO_WEBHOOK_SECRET", "")
	if secret == "" {
		// Operator error, not a client error: never silently skip verification.
		log.Print("webhook: PAGSEGURO_WEBHOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_secret_not_configured"})
	}

	signature := strings.TrimSpace(c.Get(PagSeguroSignatureHeader))
	if !payments.VerifyWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var payload payments.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if strings.TrimSpace(payload.ProviderReference) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_provider_reference"})
	}

	// Forensic receipt row before any state mutation.
	audit.Log(audit.ActionWebhookReceived, models.PaymentProviderPagSeguro, c.IP(), map[string]interface{}{
		"provider_reference": payload.ProviderReference,
		"status":             payload.Status,
	})

	var orderID *uint
	if payload.OrderID != "" {
		if v, err := strconv.ParseUint(payload.OrderID, 10, 32); err == nil {
			id := uint(v)
			orderID = &id
		}
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, err := svc.ProcessWebhook(ctx, payments.WebhookInput{
		Provider:          models.PaymentProviderPagSeguro,
		ProviderReference: payload.ProviderReference,
		ProviderStatus:    payload.Status,
		Amount:            payload.Amount,
		OrderID:           orderID,
		RawBody:           rawBody,
	})
	if err != nil {
		log.Printf("webhook: processing failed for reference %s: %v", payload.ProviderReference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_processing_failed"})
	}

	// Post-commit, best-effort: email failures never roll anything back.
	if outcome.Order != nil && outcome.OrderChanged {
		switch outcome.Order.Status {
		case models.OrderStatusPaid, models.OrderStatusCancelled, models.OrderStatusRefunded:
			notifications.DispatchOrderStatusEmail(database.GetDB(), outcome.Order.ID, outcome.Order.Status)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":                true,
		"providerReference": payload.ProviderReference,
		"result":            outcome.Result,
	})
}
