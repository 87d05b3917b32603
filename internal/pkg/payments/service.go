package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine/app/models"
	"github.com/vitrinelabs/vitrine/internal/pkg/fulfillment"
)

// ErrMissingReference is returned when a delivery carries no provider reference.
var ErrMissingReference = errors.New("provider_reference is required")

// Service processes provider webhook deliveries against the payment ledger.
type Service struct {
	db *gorm.DB
}

// NewServiceFromDB creates a webhook service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ProcessWebhook runs the idempotent ledger update for one delivery as a
// single atomic transaction: locked lookup, duplicate short-circuit, upsert,
// append-only log and the conditional order side effects. Everything inside
// is all-or-nothing; a duplicate delivery only appends a log row.
func (s *Service) ProcessWebhook(ctx context.Context, in WebhookInput) (*Outcome, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	reference := strings.TrimSpace(in.ProviderReference)
	if reference == "" {
		return nil, ErrMissingReference
	}
	newStatus := MapProviderStatus(in.ProviderStatus)

	var out *Outcome
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		existing, err := repo.FindPaymentByReference(reference)
		if err != nil {
			return err
		}

		logEntry := &models.PaymentWebhookLog{
			Provider:          provider,
			ProviderReference: reference,
			Status:            strings.TrimSpace(in.ProviderStatus),
			RawBody:           string(in.RawBody),
		}

		// Duplicate delivery for an already-recorded status: append to the
		// log only, never re-run fulfillment.
		if existing != nil && existing.Status == string(newStatus) {
			if err := repo.AppendWebhookLog(logEntry); err != nil {
				return err
			}
			out = &Outcome{Result: ResultDuplicate, Payment: existing}
			return nil
		}

		now := time.Now()
		result := ResultUpdated
		var payment *models.Payment

		if existing == nil {
			candidate := &models.Payment{
				Provider:          provider,
				ProviderReference: reference,
				Status:            string(newStatus),
				Amount:            in.Amount,
				OrderID:           in.OrderID,
				PayloadJSON:       string(in.RawBody),
				LastWebhookAt:     &now,
			}
			created, stored, err := repo.CreatePaymentIfNotExists(candidate)
			if err != nil {
				return err
			}
			if created {
				result = ResultCreated
				payment = stored
			} else if stored.Status == string(newStatus) {
				// Lost a creation race against a concurrent delivery that
				// recorded the same status.
				if err := repo.AppendWebhookLog(logEntry); err != nil {
					return err
				}
				out = &Outcome{Result: ResultDuplicate, Payment: stored}
				return nil
			} else {
				existing = stored
			}
		}

		if payment == nil {
			updates := map[string]interface{}{
				"status":          string(newStatus),
				"payload_json":    string(in.RawBody),
				"last_webhook_at": &now,
			}
			if in.Amount != nil {
				updates["amount"] = in.Amount
			}
			if existing.OrderID == nil && in.OrderID != nil {
				updates["order_id"] = in.OrderID
				existing.OrderID = in.OrderID
			}
			if err := repo.UpdatePayment(existing.ID, updates); err != nil {
				return err
			}
			existing.Status = string(newStatus)
			payment = existing
		}

		if err := repo.AppendWebhookLog(logEntry); err != nil {
			return err
		}

		out = &Outcome{Result: result, Payment: payment}

		switch newStatus {
		case StatusPaid:
			return s.applyPaid(tx, payment, reference, now, out)
		case StatusCancelled, StatusRefunded:
			return s.applyCancellation(tx, repo, payment, newStatus, reference, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyPaid runs the fulfillment workflow inside the caller's transaction.
func (s *Service) applyPaid(tx *gorm.DB, payment *models.Payment, reference string, paidAt time.Time, out *Outcome) error {
	order, fulfilled, err := fulfillment.MarkOrderPaid(tx, fulfillment.MarkPaidInput{
		OrderID:           orderIDOf(payment),
		PaymentID:         payment.ID,
		ProviderReference: reference,
		PaidAt:            paidAt,
	})
	if err != nil {
		return err
	}
	out.Order = order
	if fulfilled {
		out.Result = ResultFulfilled
		out.OrderChanged = true
	}
	return nil
}

// applyCancellation moves the order to cancelled/refunded, protecting paid
// orders from stale cancellation signals.
func (s *Service) applyCancellation(tx *gorm.DB, repo Repository, payment *models.Payment, newStatus Status, reference string, out *Outcome) error {
	if payment.OrderID == nil {
		return nil
	}
	order, err := repo.FindOrderByID(*payment.OrderID)
	if err != nil || order == nil {
		return err
	}
	out.Order = order

	// A paid order must never be clobbered by a late or duplicate cancel.
	if order.IsPaid() && newStatus == StatusCancelled {
		out.Result = ResultIgnoredAfterPaid
		return nil
	}
	if order.Status == string(newStatus) {
		return nil
	}

	from := order.Status
	if err := repo.UpdateOrderStatus(order.ID, string(newStatus)); err != nil {
		return err
	}
	order.Status = string(newStatus)

	action := models.OrderEventStatusChanged
	if newStatus == StatusCancelled {
		action = models.OrderEventCancelled
	}
	if err := models.AppendOrderEvent(tx, order.ID, action, map[string]interface{}{
		"provider_reference": reference,
		"from":               from,
		"to":                 string(newStatus),
	}); err != nil {
		return err
	}

	out.Result = ResultOrderUpdated
	out.OrderChanged = true
	return nil
}

func orderIDOf(payment *models.Payment) uint {
	if payment.OrderID == nil {
		return 0
	}
	return *payment.OrderID
}
