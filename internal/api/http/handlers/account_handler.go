package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenauth/token-service/internal/api/dto"
	"github.com/tokenauth/token-service/internal/auth"
	"github.com/tokenauth/token-service/internal/service"
	apperrors "github.com/tokenauth/token-service/pkg/util/errorutil"
)

// AccountHandler serves the authenticated caller's own account.
type AccountHandler struct {
	auth *service.AuthService
}

// NewAccountHandler constructs handler.
func NewAccountHandler(authService *service.AuthService) *AccountHandler {
	return &AccountHandler{auth: authService}
}

// Principal handles GET /account/principal.
func (h *AccountHandler) Principal(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": principal})
}

// ChangePassword handles POST /account/password.
func (h *AccountHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal.Username, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}
