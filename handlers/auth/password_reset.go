package auth

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
)

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset with token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ForgotPassword issues a reset token. The response is the same whether or
// not the email matches an account, so the endpoint cannot be used to probe
// for registered addresses.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	token, issued := h.authService.RequestPasswordReset(c.Context(), req.Email)
	if issued {
		// No email delivery wired up. Outside production the token is logged
		// for the operator to relay out of band; in production it never
		// touches the logs.
		if os.Getenv("GO_ENV") == "production" {
			log.Printf("Password reset token issued (request %s)", requestID(c))
		} else {
			log.Printf("Password reset token issued for %s: %s", req.Email, token)
		}
	}

	return response.SuccessWithMessage(c, "If the email is registered, a reset link has been sent", nil)
}

// ResetPassword consumes a reset token and sets a new password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result := h.authService.ResetPassword(c.Context(), req.Token, req.NewPassword)
	if !result.Success {
		return response.BadRequest(c, result.Message)
	}

	return response.SuccessWithMessage(c, "Password has been reset", nil)
}
