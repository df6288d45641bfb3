package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
)

// LoginRequest represents a user login request. Identifier accepts either
// a username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	ip := c.IP()

	result := h.authService.Login(c.Context(), req.Identifier, req.Password, c.Get("User-Agent"), ip)
	if !result.Success {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, result.Message)
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
	}

	h.activityService.Record(
		c.Context(), result.UserID, model.ActivityTypeLogin,
		requestID(c), ip, c.Get("User-Agent"), "{}",
	)

	return response.Success(c, result)
}
