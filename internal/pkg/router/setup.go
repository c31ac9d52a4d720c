package router

import (
	"github.com/gofiber/fiber/v2"

	apiv1 "github.com/chessledger/chessledger/internal/api/v1"
)

// Router installs a set of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, api *apiv1.APIServer) {
	setup(app, NewHttpRouter(), NewApiRouter(api))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
