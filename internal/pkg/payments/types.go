package payments

import (
	"github.com/shopspring/decimal"

	"github.com/vitrinelabs/vitrine/app/models"
)

// Result describes what a webhook delivery did to local state.
type Result string

const (
	// ResultCreated means a new ledger row was created for the reference.
	ResultCreated Result = "created"
	// ResultUpdated means the ledger row changed status without touching an order.
	ResultUpdated Result = "updated"
	// ResultDuplicate means the delivery repeated an already-recorded status.
	ResultDuplicate Result = "duplicate"
	// ResultFulfilled means the order fulfillment workflow ran.
	ResultFulfilled Result = "fulfilled"
	// ResultOrderUpdated means the order moved to cancelled/refunded.
	ResultOrderUpdated Result = "order_updated"
	// ResultIgnoredAfterPaid means a stale cancellation hit a paid order and
	// was deliberately dropped.
	ResultIgnoredAfterPaid Result = "ignored_after_paid"
)

// WebhookPayload is the typed shape of the provider notification body. The
// raw bytes are kept alongside for the ledger and the append-only log.
type WebhookPayload struct {
	ProviderReference string           `json:"provider_reference"`
	Status            string           `json:"status"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	OrderID           string           `json:"order_id,omitempty"`
}

// WebhookInput carries one parsed delivery into the service.
type WebhookInput struct {
	Provider          string
	ProviderReference string
	ProviderStatus    string
	Amount            *decimal.Decimal
	OrderID           *uint
	RawBody           []byte
}

// Outcome is the committed result of processing one delivery. Order is nil
// when the delivery did not resolve to an order; OrderChanged reports whether
// this delivery mutated it (the notification dispatcher keys off that).
type Outcome struct {
	Result       Result
	Payment      *models.Payment
	Order        *models.Order
	OrderChanged bool
}
