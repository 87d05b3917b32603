package payments

import "strings"

// Status is the canonical internal payment state, decoupled from
// provider-specific vocabulary.
type Status string

const (
	StatusPaid      Status = "paid"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
	StatusUnknown   Status = "unknown"
)

var providerStatusTable = map[string]Status{
	"paid":        StatusPaid,
	"completed":   StatusPaid,
	"authorized":  StatusPending,
	"pending":     StatusPending,
	"waiting":     StatusPending,
	"in_analysis": StatusPending,
	"canceled":    StatusCancelled,
	"cancelled":   StatusCancelled,
	"declined":    StatusCancelled,
	"failed":      StatusCancelled,
	"refunded":    StatusRefunded,
	"chargeback":  StatusRefunded,
}

// MapProviderStatus normalizes a provider status string. The lookup is
// case-insensitive and total: anything outside the table maps to unknown.
func MapProviderStatus(providerStatus string) Status {
	if s, ok := providerStatusTable[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return s
	}
	return StatusUnknown
}
