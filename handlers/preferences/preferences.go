package preferences

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"github.com/sahilchouksey/reddit-scout-api/utils/middleware"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
	"github.com/sahilchouksey/reddit-scout-api/utils/validation"
)

// PreferencesHandler manages per-user dashboard preferences
type PreferencesHandler struct {
	preferencesService *services.PreferencesService
	validator          *validation.Validator
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(preferencesService *services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{
		preferencesService: preferencesService,
		validator:          validation.NewValidator(),
	}
}

// GetPreferences handles GET /api/v1/preferences
func (h *PreferencesHandler) GetPreferences(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	prefs, err := h.preferencesService.GetPreferences(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load preferences")
	}

	return response.Success(c, prefs)
}

// UpdatePreferences handles PUT /api/v1/preferences. Only fields present in
// the body are changed.
func (h *PreferencesHandler) UpdatePreferences(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var patch services.PreferencesPatch
	if err := c.BodyParser(&patch); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(patch); err != nil {
		return response.ValidationError(c, err)
	}

	prefs, err := h.preferencesService.UpdatePreferences(c.Context(), userID, patch)
	if err != nil {
		return response.InternalServerError(c, "Failed to update preferences")
	}

	return response.Success(c, prefs)
}
