package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenauth/token-service/internal/api/http/handlers"
	"github.com/tokenauth/token-service/internal/auth"
	"github.com/tokenauth/token-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Account        *handlers.AccountHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.SignUp)
	authGroup.Post("/signin", cfg.Auth.SignIn)
	authGroup.Get("/authenticated", cfg.Auth.Authenticated)

	account := app.Group("/account", cfg.AuthMiddleware.Handle, auth.RequireAuthority(domain.AuthorityUser, domain.AuthorityAdmin))
	account.Get("/principal", cfg.Account.Principal)
	account.Post("/password", cfg.Account.ChangePassword)
}
