package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tokenauth/token-service/internal/domain"
	apperrors "github.com/tokenauth/token-service/pkg/util/errorutil"
)

// RequireAuthority ensures the principal holds at least one of the allowed authorities.
func RequireAuthority(allowed ...domain.Authority) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		if !principal.HasAuthority(allowed...) {
			return apperrors.NewForbidden("insufficient authority")
		}
		return c.Next()
	}
}
