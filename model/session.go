package model

import (
	"time"
)

// Session represents an opaque login session token with a bounded lifetime.
// A session authenticates a browser context until it expires, is logged out,
// or its owning account is deactivated.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	SessionToken string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"-"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UserAgent    string    `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	IPAddress    string    `gorm:"type:varchar(45)" json:"ip_address,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// IsExpired checks if the session is past its expiry
func (s *Session) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}
