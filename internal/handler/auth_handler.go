package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginOrRegister handles POST /v1/auth/login
func (h *AuthHandler) LoginOrRegister(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Missing Authorization header",
		})
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	resp, err := h.authService.LoginOrRegister(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	message := "Welcome back!"
	if resp.IsNewUser {
		message = "Welcome! Your account has been created."
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"token":       resp.Token,
		"is_new_user": resp.IsNewUser,
		"message":     message,
		"user": fiber.Map{
			"id":    resp.User.ID,
			"email": resp.User.Email,
			"name":  resp.User.Name,
			"roles": resp.User.Roles,
		},
	})
}
