package constants

// Static route constants
const (
	APIRoute              = "/api"
	HealthRoute           = "/health"
	PagSeguroWebhookRoute = "/webhooks/pagseguro"
	AdminRoute            = "/admin"
)
