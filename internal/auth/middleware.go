package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenauth/token-service/internal/domain"
	"github.com/tokenauth/token-service/internal/events"
	apperrors "github.com/tokenauth/token-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenService
	events events.Dispatcher
}

// NewAuthMiddleware constructs middleware. dispatcher may be nil.
func NewAuthMiddleware(tokens *TokenService, dispatcher events.Dispatcher) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, events: dispatcher}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := StripAuthPrefix(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		m.reject(c, domain.TokenInvalid, events.VerdictMissingToken, "missing bearer token")
		return apperrors.NewUnauthorized("missing bearer token")
	}

	result, err := m.tokens.Authenticate(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			m.reject(c, domain.TokenValid, events.VerdictUnknownPrincipal, "principal not found")
			return apperrors.NewUnauthorized("principal not found")
		}
		return apperrors.MapError(err)
	}

	switch result.Status {
	case domain.TokenValid:
	case domain.TokenExpired:
		m.reject(c, result.Status, string(result.Status), "token expired")
		return apperrors.NewTokenExpired()
	default:
		m.reject(c, result.Status, string(result.Status), "invalid token")
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, result.Principal)
	return c.Next()
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, status domain.TokenStatus, verdict, reason string) {
	if m.events == nil {
		return
	}
	_ = m.events.Publish(c.UserContext(), events.NewEvent(events.EventAuthenticationRejected, "", events.AuthenticationRejectedPayload{
		Status:  status,
		Verdict: verdict,
		Reason:  reason,
		Path:    c.Path(),
	}))
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal != nil
}
