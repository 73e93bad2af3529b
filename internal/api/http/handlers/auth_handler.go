package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/freelancer-bff/internal/api/dto"
	"github.com/spec-kit/freelancer-bff/internal/service"
	apperrors "github.com/spec-kit/freelancer-bff/pkg/util"
)

// SignInService issues tokens for valid credentials.
type SignInService interface {
	SignIn(ctx context.Context, username, password string) (*service.AccessToken, error)
}

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth SignInService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService SignInService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	missing := make([]string, 0, 2)
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("username and password required", map[string]any{"missing": missing})
	}

	token, err := h.auth.SignIn(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.SignInResponse{AccessToken: token.Token})
}
