package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sahilchouksey/reddit-scout-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PreferencesService manages per-user exploration and filtering defaults.
// Rows are created lazily with hard-coded defaults on first access.
type PreferencesService struct {
	db *gorm.DB
}

// NewPreferencesService creates a new preferences service
func NewPreferencesService(db *gorm.DB) *PreferencesService {
	return &PreferencesService{db: db}
}

// PreferencesPatch is a partial update; nil fields are left untouched
type PreferencesPatch struct {
	DefaultSubreddits    []string `json:"default_subreddits,omitempty"`
	MaxPostsPerRequest   *int     `json:"max_posts_per_request,omitempty" validate:"omitempty,min=1,max=500"`
	DefaultTimeFilter    *string  `json:"default_time_filter,omitempty" validate:"omitempty,oneof=hour day week month year all"`
	MinScoreThreshold    *int     `json:"min_score_threshold,omitempty" validate:"omitempty,min=0"`
	MinCommentsThreshold *int     `json:"min_comments_threshold,omitempty" validate:"omitempty,min=0"`
	ExcludeNSFW          *bool    `json:"exclude_nsfw,omitempty"`
	ExcludeSpoilers      *bool    `json:"exclude_spoilers,omitempty"`
	Theme                *string  `json:"theme,omitempty"`
	ItemsPerPage         *int     `json:"items_per_page,omitempty" validate:"omitempty,min=1,max=100"`
}

// GetPreferences returns the user's preferences, creating the row with
// defaults if it does not exist yet.
func (s *PreferencesService) GetPreferences(ctx context.Context, userID uint) (*model.UserPreference, error) {
	var prefs model.UserPreference
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	subs, _ := json.Marshal(model.DefaultSubreddits)
	prefs = model.UserPreference{
		UserID:               userID,
		DefaultSubreddits:    datatypes.JSON(subs),
		MaxPostsPerRequest:   100,
		DefaultTimeFilter:    "week",
		MinScoreThreshold:    5,
		MinCommentsThreshold: 3,
		ExcludeNSFW:          true,
		ExcludeSpoilers:      true,
		Theme:                "light",
		ItemsPerPage:         25,
	}
	if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}
	return &prefs, nil
}

// UpdatePreferences applies a partial update to the user's preferences
func (s *PreferencesService) UpdatePreferences(ctx context.Context, userID uint, patch PreferencesPatch) (*model.UserPreference, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.DefaultSubreddits != nil {
		subs, err := json.Marshal(patch.DefaultSubreddits)
		if err != nil {
			return nil, fmt.Errorf("invalid subreddit list: %w", err)
		}
		prefs.DefaultSubreddits = datatypes.JSON(subs)
	}
	if patch.MaxPostsPerRequest != nil {
		prefs.MaxPostsPerRequest = *patch.MaxPostsPerRequest
	}
	if patch.DefaultTimeFilter != nil {
		prefs.DefaultTimeFilter = *patch.DefaultTimeFilter
	}
	if patch.MinScoreThreshold != nil {
		prefs.MinScoreThreshold = *patch.MinScoreThreshold
	}
	if patch.MinCommentsThreshold != nil {
		prefs.MinCommentsThreshold = *patch.MinCommentsThreshold
	}
	if patch.ExcludeNSFW != nil {
		prefs.ExcludeNSFW = *patch.ExcludeNSFW
	}
	if patch.ExcludeSpoilers != nil {
		prefs.ExcludeSpoilers = *patch.ExcludeSpoilers
	}
	if patch.Theme != nil {
		prefs.Theme = *patch.Theme
	}
	if patch.ItemsPerPage != nil {
		prefs.ItemsPerPage = *patch.ItemsPerPage
	}

	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	return prefs, nil
}
