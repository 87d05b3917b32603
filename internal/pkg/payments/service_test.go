package payments

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vitrinelabs/vitrine/app/models"
)

func paidInput(order *models.Order, reference string) WebhookInput {
	amount := decimal.RequireFromString("119.70")
	orderID := order.ID
	return WebhookInput{
		Provider:          models.PaymentProviderPagSeguro,
		ProviderReference: reference,
		ProviderStatus:    "paid",
		Amount:            &amount,
		OrderID:           &orderID,
		RawBody:           []byte(`{"provider_reference":"` + reference + `","status":"paid"}`),
	}
}

func TestProcessWebhook_PaidFulfillsOrder(t *testing.T) {
	db := newTestDB(t)
	order, variant, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	out, err := svc.ProcessWebhook(context.Background(), paidInput(order, "ref-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result != ResultFulfilled {
		t.Fatalf("result = %q, want %q", out.Result, ResultFulfilled)
	}
	if out.Order == nil || !out.Order.IsPaid() || !out.OrderChanged {
		t.Fatalf("expected a changed paid order, got %+v", out.Order)
	}

	var freshOrder models.Order
	if err := db.First(&freshOrder, order.ID).Error; err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if freshOrder.Status != models.OrderStatusPaid || freshOrder.PaidAt == nil {
		t.Fatalf("order not marked paid: status=%q paidAt=%v", freshOrder.Status, freshOrder.PaidAt)
	}

	var freshVariant models.ProductVariant
	if err := db.First(&freshVariant, variant.ID).Error; err != nil {
		t.Fatalf("failed to reload variant: %v", err)
	}
	if freshVariant.Stock != 7 {
		t.Fatalf("variant stock = %d, want 7", freshVariant.Stock)
	}

	var entitlements int64
	db.Model(&models.DigitalEntitlement{}).Count(&entitlements)
	if entitlements != 1 {
		t.Fatalf("entitlement count = %d, want 1", entitlements)
	}

	var events int64
	db.Model(&models.OrderEvent{}).
		Where("order_id = ? AND action = ?", order.ID, models.OrderEventPaymentConfirmed).
		Count(&events)
	if events != 1 {
		t.Fatalf("payment_confirmed event count = %d, want 1", events)
	}

	var logs int64
	db.Model(&models.PaymentWebhookLog{}).Where("provider_reference = ?", "ref-1").Count(&logs)
	if logs != 1 {
		t.Fatalf("webhook log count = %d, want 1", logs)
	}
}

func TestProcessWebhook_DuplicateDeliveryIsNoOp(t *testing.T) {
	db := newTestDB(t)
	order, variant, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	if _, err := svc.ProcessWebhook(context.Background(), paidInput(order, "ref-1")); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	out, err := svc.ProcessWebhook(context.Background(), paidInput(order, "ref-1"))
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if out.Result != ResultDuplicate {
		t.Fatalf("result = %q, want %q", out.Result, ResultDuplicate)
	}

	var freshVariant models.ProductVariant
	db.First(&freshVariant, variant.ID)
	if freshVariant.Stock != 7 {
		t.Fatalf("stock decremented twice: %d, want 7", freshVariant.Stock)
	}

	var entitlements int64
	db.Model(&models.DigitalEntitlement{}).Count(&entitlements)
	if entitlements != 1 {
		t.Fatalf("entitlement count = %d, want 1", entitlements)
	}

	// Every delivery is logged, duplicates included.
	var logs int64
	db.Model(&models.PaymentWebhookLog{}).Where("provider_reference = ?", "ref-1").Count(&logs)
	if logs != 2 {
		t.Fatalf("webhook log count = %d, want 2", logs)
	}

	var payments int64
	db.Model(&models.Payment{}).Count(&payments)
	if payments != 1 {
		t.Fatalf("payment count = %d, want 1", payments)
	}
}

func TestProcessWebhook_CancelAfterPaidIsIgnored(t *testing.T) {
	db := newTestDB(t)
	order, _, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	if _, err := svc.ProcessWebhook(context.Background(), paidInput(order, "ref-1")); err != nil {
		t.Fatalf("paid delivery failed: %v", err)
	}

	in := paidInput(order, "ref-1")
	in.ProviderStatus = "cancelled"
	in.RawBody = []byte(`{"provider_reference":"ref-1","status":"cancelled"}`)
	out, err := svc.ProcessWebhook(context.Background(), in)
	if err != nil {
		t.Fatalf("cancel delivery failed: %v", err)
	}
	if out.Result != ResultIgnoredAfterPaid {
		t.Fatalf("result = %q, want %q", out.Result, ResultIgnoredAfterPaid)
	}
	if out.OrderChanged {
		t.Fatalf("expected order to be untouched")
	}

	var freshOrder models.Order
	db.First(&freshOrder, order.ID)
	if freshOrder.Status != models.OrderStatusPaid {
		t.Fatalf("paid order was clobbered: status = %q", freshOrder.Status)
	}
}

func TestProcessWebhook_RefundAfterPaidUpdatesOrder(t *testing.T) {
	db := newTestDB(t)
	order, _, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	if _, err := svc.ProcessWebhook(context.Background(), paidInput(order, "ref-1")); err != nil {
		t.Fatalf("paid delivery failed: %v", err)
	}

	in := paidInput(order, "ref-1")
	in.ProviderStatus = "refunded"
	in.RawBody = []byte(`{"provider_reference":"ref-1","status":"refunded"}`)
	out, err := svc.ProcessWebhook(context.Background(), in)
	if err != nil {
		t.Fatalf("refund delivery failed: %v", err)
	}
	if out.Result != ResultOrderUpdated || !out.OrderChanged {
		t.Fatalf("result = %q changed=%v, want %q changed=true", out.Result, out.OrderChanged, ResultOrderUpdated)
	}

	var freshOrder models.Order
	db.First(&freshOrder, order.ID)
	if freshOrder.Status != models.OrderStatusRefunded {
		t.Fatalf("order status = %q, want refunded", freshOrder.Status)
	}

	var events int64
	db.Model(&models.OrderEvent{}).
		Where("order_id = ? AND action = ?", order.ID, models.OrderEventStatusChanged).
		Count(&events)
	if events != 1 {
		t.Fatalf("status_changed event count = %d, want 1", events)
	}
}

func TestProcessWebhook_CancelPendingOrder(t *testing.T) {
	db := newTestDB(t)
	order, _, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	in := paidInput(order, "ref-1")
	in.ProviderStatus = "declined"
	in.RawBody = []byte(`{"provider_reference":"ref-1","status":"declined"}`)
	out, err := svc.ProcessWebhook(context.Background(), in)
	if err != nil {
		t.Fatalf("cancel delivery failed: %v", err)
	}
	if out.Result != ResultOrderUpdated {
		t.Fatalf("result = %q, want %q", out.Result, ResultOrderUpdated)
	}

	var freshOrder models.Order
	db.First(&freshOrder, order.ID)
	if freshOrder.Status != models.OrderStatusCancelled {
		t.Fatalf("order status = %q, want cancelled", freshOrder.Status)
	}

	var events int64
	db.Model(&models.OrderEvent{}).
		Where("order_id = ? AND action = ?", order.ID, models.OrderEventCancelled).
		Count(&events)
	if events != 1 {
		t.Fatalf("cancelled event count = %d, want 1", events)
	}
}

func TestProcessWebhook_ConcurrentPaidAndCancelKeepsOrderPaid(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	order, variant, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	cancelIn := paidInput(order, "ref-b")
	cancelIn.ProviderStatus = "cancelled"
	cancelIn.RawBody = []byte(`{"provider_reference":"ref-b","status":"cancelled"}`)

	// A paid and a cancel delivery race on the same order under distinct
	// provider references, so the payment-row lock does not serialize them.
	// Whichever commits first, the order must end up paid: either the cancel
	// lands on a pending order and the paid delivery overrides it, or the
	// cancel sees a paid order and is ignored.
	var wg sync.WaitGroup
	deliver := func(in WebhookInput) {
		defer wg.Done()
		if _, err := svc.ProcessWebhook(context.Background(), in); err != nil {
			t.Errorf("delivery %s failed: %v", in.ProviderReference, err)
		}
	}
	wg.Add(2)
	go deliver(paidInput(order, "ref-a"))
	go deliver(cancelIn)
	wg.Wait()

	var freshOrder models.Order
	db.First(&freshOrder, order.ID)
	if freshOrder.Status != models.OrderStatusPaid {
		t.Fatalf("order status = %q, want paid (cancel clobbered a paid order)", freshOrder.Status)
	}

	var freshVariant models.ProductVariant
	db.First(&freshVariant, variant.ID)
	if freshVariant.Stock != 7 {
		t.Fatalf("stock = %d, want 7", freshVariant.Stock)
	}

	var entitlements int64
	db.Model(&models.DigitalEntitlement{}).Count(&entitlements)
	if entitlements != 1 {
		t.Fatalf("entitlement count = %d, want 1", entitlements)
	}

	var events int64
	db.Model(&models.OrderEvent{}).
		Where("order_id = ? AND action = ?", order.ID, models.OrderEventPaymentConfirmed).
		Count(&events)
	if events != 1 {
		t.Fatalf("payment_confirmed event count = %d, want 1", events)
	}
}

func TestProcessWebhook_UnknownStatusOnlyRecordsLedger(t *testing.T) {
	db := newTestDB(t)
	order, variant, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	in := paidInput(order, "ref-9")
	in.ProviderStatus = "weird_new_state"
	out, err := svc.ProcessWebhook(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result != ResultCreated {
		t.Fatalf("result = %q, want %q", out.Result, ResultCreated)
	}

	var payment models.Payment
	if err := db.Where("provider_reference = ?", "ref-9").First(&payment).Error; err != nil {
		t.Fatalf("expected ledger row: %v", err)
	}
	if payment.Status != string(StatusUnknown) {
		t.Fatalf("payment status = %q, want unknown", payment.Status)
	}

	var freshOrder models.Order
	db.First(&freshOrder, order.ID)
	if freshOrder.Status != models.OrderStatusPending {
		t.Fatalf("order status = %q, want pending", freshOrder.Status)
	}
	var freshVariant models.ProductVariant
	db.First(&freshVariant, variant.ID)
	if freshVariant.Stock != 10 {
		t.Fatalf("stock = %d, want 10", freshVariant.Stock)
	}
}

func TestProcessWebhook_MissingReference(t *testing.T) {
	db := newTestDB(t)
	svc := NewServiceFromDB(db)

	_, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Provider:       models.PaymentProviderPagSeguro,
		ProviderStatus: "paid",
		RawBody:        []byte(`{"status":"paid"}`),
	})
	if !errors.Is(err, ErrMissingReference) {
		t.Fatalf("err = %v, want ErrMissingReference", err)
	}
}

func TestProcessWebhook_PendingThenPaidUpdatesLedger(t *testing.T) {
	db := newTestDB(t)
	order, _, _ := seedOrder(t, db)
	svc := NewServiceFromDB(db)

	in := paidInput(order, "ref-1")
	in.ProviderStatus = "in_analysis"
	out, err := svc.ProcessWebhook(context.Background(), in)
	if err != nil {
		t.Fatalf("pending delivery failed: %v", err)
	}
	if out.Result != ResultCreated {
		t.Fatalf("result = %q, want %q", out.Result, ResultCreated)
	}

	out, err = svc.ProcessWebhook(context.Background(), paidInput(order, "ref-1"))
	if err != nil {
		t.Fatalf("paid delivery failed: %v", err)
	}
	if out.Result != ResultFulfilled {
		t.Fatalf("result = %q, want %q", out.Result, ResultFulfilled)
	}

	var payment models.Payment
	db.Where("provider_reference = ?", "ref-1").First(&payment)
	if payment.Status != string(StatusPaid) {
		t.Fatalf("payment status = %q, want paid", payment.Status)
	}
	if payment.LastWebhookAt == nil {
		t.Fatalf("expected last_webhook_at to be set")
	}
}
