package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Username     string         `gorm:"uniqueIndex;not null;type:varchar(50)" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null;type:varchar(100)" json:"email"` // Stored lowercase
	PasswordHash string         `gorm:"not null" json:"-"`                                   // Never expose password in JSON
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login,omitempty"`

	// Relationships
	Sessions    []Session        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	APIKeys     []UserAPIKey     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Preferences []UserPreference `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Activities  []UserActivity   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ResetTokens []PasswordResetToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
