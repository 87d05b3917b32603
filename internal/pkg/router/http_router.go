package router

import (
	"github.com/vitrinelabs/vitrine/app/controllers"
	"github.com/vitrinelabs/vitrine/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize admin order controller with repositories
	controllers.InitializeAdminOrderController()

	app.Get(constants.HealthRoute, controllers.HandleHealth)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
