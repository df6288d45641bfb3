package apikey

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"github.com/sahilchouksey/reddit-scout-api/services/reddit"
	"github.com/sahilchouksey/reddit-scout-api/utils/middleware"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
	"github.com/sahilchouksey/reddit-scout-api/utils/validation"
)

// APIKeyHandler manages per-user Reddit API credentials
type APIKeyHandler struct {
	apiKeyService   *services.APIKeyService
	activityService *services.ActivityService
	scoutFactory    *reddit.ScoutFactory
	validator       *validation.Validator
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(apiKeyService *services.APIKeyService, activityService *services.ActivityService, scoutFactory *reddit.ScoutFactory) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService:   apiKeyService,
		activityService: activityService,
		scoutFactory:    scoutFactory,
		validator:       validation.NewValidator(),
	}
}

// KeyStatusResponse reports whether credentials are stored without ever
// exposing the secrets themselves.
type KeyStatusResponse struct {
	Configured bool      `json:"configured"`
	ClientID   string    `json:"client_id,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// GetKeys handles GET /api/v1/keys
func (h *APIKeyHandler) GetKeys(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	keys, err := h.apiKeyService.GetAPIKeys(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load API keys")
	}

	if keys == nil {
		return response.Success(c, KeyStatusResponse{Configured: false})
	}

	return response.Success(c, KeyStatusResponse{
		Configured: keys.ClientID != "" && keys.ClientSecret != "",
		ClientID:   keys.ClientID,
		UserAgent:  keys.UserAgent,
		UpdatedAt:  keys.UpdatedAt,
	})
}

// UpdateKeysRequest carries new Reddit API credentials
type UpdateKeysRequest struct {
	ClientID       string `json:"client_id" validate:"required"`
	ClientSecret   string `json:"client_secret" validate:"required"`
	RedditUsername string `json:"reddit_username"`
	RedditPassword string `json:"reddit_password"`
	UserAgent      string `json:"user_agent"`
}

// UpdateKeys handles PUT /api/v1/keys. The credentials are verified against
// the Reddit API before anything is stored.
func (h *APIKeyHandler) UpdateKeys(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateKeysRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	err := h.scoutFactory.UpdateAPIKeys(c.Context(), userID, services.KeyFields{
		ClientID:       req.ClientID,
		ClientSecret:   req.ClientSecret,
		RedditUsername: req.RedditUsername,
		RedditPassword: req.RedditPassword,
		UserAgent:      req.UserAgent,
	})
	if err != nil {
		if errors.Is(err, reddit.ErrInvalidCredentials) {
			return response.BadRequest(c, "Reddit rejected the provided credentials")
		}
		if errors.Is(err, reddit.ErrUpstream) {
			return response.BadGateway(c, "Could not reach Reddit to verify credentials")
		}
		return response.InternalServerError(c, "Failed to save API keys")
	}

	h.activityService.Record(
		c.Context(), userID, model.ActivityTypeAPIKeyUpdate,
		"", c.IP(), c.Get("User-Agent"), "{}",
	)

	return response.SuccessWithMessage(c, "Reddit API credentials verified and saved", nil)
}

// DeleteKeys handles DELETE /api/v1/keys
func (h *APIKeyHandler) DeleteKeys(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if err := h.apiKeyService.ClearAPIKeys(c.Context(), userID); err != nil {
		return response.InternalServerError(c, "Failed to clear API keys")
	}

	h.activityService.Record(
		c.Context(), userID, model.ActivityTypeAPIKeyUpdate,
		"", c.IP(), c.Get("User-Agent"), `{"cleared":true}`,
	)

	return response.SuccessWithMessage(c, "Reddit API credentials removed", nil)
}
