package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DefaultSubreddits is the seed list used when a user has no saved preferences
var DefaultSubreddits = []string{"python", "programming", "technology", "datascience"}

// UserPreference holds per-user defaults for Reddit exploration and content
// filtering. Rows are created lazily on first use.
type UserPreference struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	// Reddit preferences
	DefaultSubreddits  datatypes.JSON `gorm:"type:text" json:"default_subreddits"`
	MaxPostsPerRequest int            `gorm:"default:100" json:"max_posts_per_request"`
	DefaultTimeFilter  string         `gorm:"type:varchar(20);default:'week'" json:"default_time_filter"`

	// Content filtering preferences
	MinScoreThreshold    int  `gorm:"default:5" json:"min_score_threshold"`
	MinCommentsThreshold int  `gorm:"default:3" json:"min_comments_threshold"`
	ExcludeNSFW          bool `gorm:"default:true" json:"exclude_nsfw"`
	ExcludeSpoilers      bool `gorm:"default:true" json:"exclude_spoilers"`

	// UI preferences
	Theme        string `gorm:"type:varchar(20);default:'light'" json:"theme"`
	ItemsPerPage int    `gorm:"default:25" json:"items_per_page"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserPreference
func (UserPreference) TableName() string {
	return "user_preferences"
}

// Subreddits decodes the stored JSON subreddit list, falling back to the
// defaults on empty or malformed data.
func (p *UserPreference) Subreddits() []string {
	if len(p.DefaultSubreddits) == 0 {
		return DefaultSubreddits
	}
	var subs []string
	if err := json.Unmarshal(p.DefaultSubreddits, &subs); err != nil || len(subs) == 0 {
		return DefaultSubreddits
	}
	return subs
}
