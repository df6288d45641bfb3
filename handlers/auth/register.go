package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"github.com/sahilchouksey/reddit-scout-api/utils/middleware"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
	"github.com/sahilchouksey/reddit-scout-api/utils/validation"
)

// AuthHandler serves registration, login, logout and session endpoints
type AuthHandler struct {
	authService          *services.AuthService
	activityService      *services.ActivityService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, activityService *services.ActivityService, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		activityService:      activityService,
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result := h.authService.Register(c.Context(), req.Username, req.Email, req.Password)
	if !result.Success {
		if result.Message == "Username already exists" || result.Message == "Email already registered" {
			return response.Conflict(c, result.Message)
		}
		return response.BadRequest(c, result.Message)
	}

	h.activityService.Record(
		c.Context(), result.UserID, model.ActivityTypeRegister,
		requestID(c), c.IP(), c.Get("User-Agent"), "{}",
	)

	return response.Created(c, result)
}

// requestID returns the request ID set by the requestid middleware
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
