package audit

import (
	"encoding/json"
	"log"

	"github.com/vitrinelabs/vitrine/app/models"
	"github.com/vitrinelabs/vitrine/internal/pkg/database"
)

const (
	ActionWebhookReceived = "payment.webhook_received"
	ActionRateLimited     = "security.rate_limited"
)

// Log appends one audit row. Failures are logged and swallowed; the audit
// trail must never take a request down with it.
func Log(action, actor, ip string, metadata map[string]interface{}) {
	db := database.GetDB()
	if db == nil {
		log.Printf("audit: database unavailable, dropping event %s", action)
		return
	}

	raw := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			raw = string(b)
		}
	}

	entry := &models.AuditLog{
		Action:       action,
		Actor:        actor,
		IP:           ip,
		MetadataJSON: raw,
	}
	if err := db.Create(entry).Error; err != nil {
		log.Printf("audit: failed to persist event %s: %v", action, err)
	}
}
