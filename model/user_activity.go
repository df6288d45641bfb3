package model

import (
	"time"
)

// ActivityType represents the type of user activity
type ActivityType string

const (
	ActivityTypeLogin           ActivityType = "login"
	ActivityTypeLogout          ActivityType = "logout"
	ActivityTypeRegister        ActivityType = "register"
	ActivityTypeAPIKeyUpdate    ActivityType = "api_key_update"
	ActivityTypeSubredditSearch ActivityType = "subreddit_search"
	ActivityTypePostSearch      ActivityType = "post_search"
	ActivityTypePasswordReset   ActivityType = "password_reset"
)

// UserActivity tracks user actions for the activity audit trail
type UserActivity struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;index:idx_user_activity" json:"user_id"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null;index:idx_activity_type" json:"activity_type"`
	RequestID    string       `gorm:"type:varchar(64)" json:"request_id,omitempty"`
	Metadata     string       `gorm:"type:text" json:"metadata,omitempty"`
	IPAddress    string       `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent    string       `gorm:"type:text" json:"user_agent"`
	CreatedAt    time.Time    `gorm:"index:idx_created_at" json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserActivity
func (UserActivity) TableName() string {
	return "user_activities"
}
