package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
)

// AuthMiddleware handles session-token authentication
type AuthMiddleware struct {
	authService *services.AuthService
	keyService  *services.APIKeyService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *services.AuthService, keyService *services.APIKeyService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		keyService:  keyService,
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Required is middleware that requires a valid session token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}

		session := m.authService.ValidateSession(c.Context(), token)
		if !session.Valid {
			return response.Unauthorized(c, session.Message)
		}

		c.Locals("user_id", session.UserID)
		c.Locals("username", session.Username)
		c.Locals("user_email", session.Email)
		c.Locals("session_token", token)

		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a session token
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}

		session := m.authService.ValidateSession(c.Context(), token)
		if !session.Valid {
			return c.Next()
		}

		c.Locals("user_id", session.UserID)
		c.Locals("username", session.Username)
		c.Locals("user_email", session.Email)
		c.Locals("session_token", token)

		return c.Next()
	}
}

// RequireRedditConfig is middleware that requires the authenticated user to
// have Reddit API credentials saved. Runs after Required.
func (m *AuthMiddleware) RequireRedditConfig() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetUserID(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}

		hasKeys, err := m.keyService.HasKeys(c.Context(), userID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check API key status")
		}
		if !hasKeys {
			return response.PreconditionFailed(c, "Reddit API credentials not configured")
		}

		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUsername extracts username from context
func GetUsername(c *fiber.Ctx) (string, bool) {
	username := c.Locals("username")
	if username == nil {
		return "", false
	}
	u, ok := username.(string)
	return u, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) (string, bool) {
	email := c.Locals("user_email")
	if email == nil {
		return "", false
	}
	e, ok := email.(string)
	return e, ok
}

// GetSessionToken extracts the raw session token from context
func GetSessionToken(c *fiber.Ctx) (string, bool) {
	token := c.Locals("session_token")
	if token == nil {
		return "", false
	}
	t, ok := token.(string)
	return t, ok
}
