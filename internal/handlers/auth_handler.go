package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.auth.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful. Please log in.",
		"level":   LevelSuccess,
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.auth.SignIn(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.LoginResponse{
		Token:              res.Token,
		ExpiresAt:          res.ExpiresAt,
		User:               *res.User,
		MustChangePassword: res.User.MustChangePassword,
		Page:               string(res.Session.Page),
	})
}

// UpdatePassword ends the session on success; the client logs in again.
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var req models.PasswordUpdateRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.auth.UpdatePassword(c.UserContext(), currentSession(c), req); err != nil {
		return respondError(c, err)
	}
	return banner(c, fiber.StatusOK, LevelSuccess, "Password updated. Please log in again with your new password.")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.SignOut(c.UserContext(), currentSession(c).ID); err != nil {
		return respondError(c, err)
	}
	return banner(c, fiber.StatusOK, LevelInfo, "You have been logged out.")
}
