package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/utils/middleware"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
)

// Logout invalidates the current session token. Responds identically
// whether or not the token matched a live session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, ok := middleware.GetSessionToken(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	if h.authService.Logout(c.Context(), token) {
		if userID, ok := middleware.GetUserID(c); ok {
			h.activityService.Record(
				c.Context(), userID, model.ActivityTypeLogout,
				requestID(c), c.IP(), c.Get("User-Agent"), "{}",
			)
		}
	}

	return response.SuccessWithMessage(c, "Logged out", nil)
}

// Me returns the authenticated user's identity from the validated session
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)
	username, _ := middleware.GetUsername(c)
	email, _ := middleware.GetUserEmail(c)

	return response.Success(c, fiber.Map{
		"user_id":  userID,
		"username": username,
		"email":    email,
	})
}

// Sessions lists the user's active sessions
func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	sessions, err := h.authService.GetUserSessions(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load sessions")
	}

	return response.Success(c, sessions)
}
