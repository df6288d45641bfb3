package model

import (
	"time"
)

// UserAPIKey stores a user's Reddit application credentials. The client id is
// low-sensitivity and kept in plaintext; the client secret and the optional
// Reddit account credentials are always encrypted before they reach this row.
// One record per user with upsert semantics - the most recently updated row
// is authoritative if duplicates ever exist.
type UserAPIKey struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	RedditClientID              string `gorm:"type:varchar(255)" json:"reddit_client_id"`
	RedditClientSecretEncrypted string `gorm:"type:text" json:"-"`
	RedditUsernameEncrypted     string `gorm:"type:text" json:"-"`
	RedditPasswordEncrypted     string `gorm:"type:text" json:"-"`
	RedditUserAgent             string `gorm:"type:varchar(100);default:'RedditScoutPro/2.0'" json:"reddit_user_agent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserAPIKey
func (UserAPIKey) TableName() string {
	return "api_keys"
}

// HasCredentials reports whether the row carries a usable client id/secret
// pair. Empty string means "not configured".
func (k *UserAPIKey) HasCredentials() bool {
	return k.RedditClientID != "" && k.RedditClientSecretEncrypted != ""
}
