package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tokenauth/token-service/internal/api/dto"
	"github.com/tokenauth/token-service/internal/service"
)

// AuthHandler exposes sign-up, sign-in and token probe endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.auth.SignUp(c.UserContext(), service.SignUpInput{
		PhoneOrEmail: req.PhoneOrEmail,
		Name:         req.Name,
		Username:     req.Username,
		Password:     req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
			Phone:    user.Phone,
		},
	})
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	issued, err := h.auth.SignIn(c.UserContext(), req.PhoneOrEmail, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: issued.Token, TokenType: issued.TokenType, ExpiresAt: issued.ExpiresAt},
	})
}

// Authenticated handles GET /auth/authenticated.
func (h *AuthHandler) Authenticated(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": dto.AuthenticatedResponse{Authenticated: h.auth.IsAuthenticated(c.Get(fiber.HeaderAuthorization))},
	})
}
