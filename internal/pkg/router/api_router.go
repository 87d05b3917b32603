package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vitrinelabs/vitrine/app/controllers"
	"github.com/vitrinelabs/vitrine/internal/pkg/cache"
	"github.com/vitrinelabs/vitrine/internal/pkg/constants"
	"github.com/vitrinelabs/vitrine/internal/pkg/middleware"
	"github.com/vitrinelabs/vitrine/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute)

	// Provider webhooks: 100 deliveries per caller IP per minute, counted in
	// Redis so the window holds across processes.
	webhookLimiter := ratelimit.New(ratelimit.Config{
		Max:       100,
		Window:    60 * time.Second,
		Counter:   ratelimit.NewRedisCounter(cache.GetClient()),
		KeyPrefix: "webhook",
	})
	api.Post(constants.PagSeguroWebhookRoute, webhookLimiter, controllers.HandlePagSeguroWebhook)

	admin := api.Group(constants.AdminRoute, middleware.AdminAPIKeyMiddleware())
	adminOrders := controllers.GetAdminOrderController()
	admin.Post("/orders/:id/mark-paid", adminOrders.HandleMarkOrderPaid)
	admin.Get("/orders/:id/events", adminOrders.HandleOrderEvents)
	admin.Get("/payments/:reference", adminOrders.HandlePaymentByReference)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
