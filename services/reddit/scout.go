package reddit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"github.com/sahilchouksey/reddit-scout-api/utils/cache"
)

const (
	// subredditCacheTTL bounds how long subreddit search/metadata responses
	// are served from Redis
	subredditCacheTTL = 5 * time.Minute
)

// ScoutFactory builds per-user Scouts from stored credentials. Credentials
// are injected into each Scout at construction; nothing reads process-global
// state on a per-user code path.
type ScoutFactory struct {
	keys  *services.APIKeyService
	prefs *services.PreferencesService
	cache *cache.RedisCache // optional, nil disables response caching
	cfg   Config
}

// NewScoutFactory creates a scout factory. redisCache may be nil.
func NewScoutFactory(keys *services.APIKeyService, prefs *services.PreferencesService, redisCache *cache.RedisCache, cfg Config) *ScoutFactory {
	return &ScoutFactory{
		keys:  keys,
		prefs: prefs,
		cache: redisCache,
		cfg:   cfg,
	}
}

// Scout is the per-user Reddit adapter: it holds a client built from the
// user's decrypted credentials and applies the user's content filters to
// fetched results. A Scout with no usable credentials stays unconfigured and
// reports that instead of erroring.
type Scout struct {
	userID  uint
	client  *Client
	prefs   *model.UserPreference
	factory *ScoutFactory
}

// ForUser loads and decrypts the user's stored credentials and constructs a
// Scout. Missing keys or a failed secret decryption leave the Scout
// unconfigured; only storage errors are returned.
func (f *ScoutFactory) ForUser(ctx context.Context, userID uint) (*Scout, error) {
	scout := &Scout{userID: userID, factory: f}

	prefs, err := f.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	scout.prefs = prefs

	keys, err := f.keys.GetAPIKeys(ctx, userID)
	if err != nil {
		return nil, err
	}
	if keys == nil || keys.ClientID == "" || keys.ClientSecret == "" {
		// ClientSecret == "" also covers decryption failure; the stored
		// credential is unusable either way.
		log.Printf("No usable API keys for user %d", userID)
		return scout, nil
	}

	scout.client = NewClient(Credentials{
		ClientID:     keys.ClientID,
		ClientSecret: keys.ClientSecret,
		Username:     keys.RedditUsername,
		Password:     keys.RedditPassword,
		UserAgent:    keys.UserAgent,
	}, f.cfg)
	return scout, nil
}

// IsConfigured reports whether the scout holds a usable client
func (s *Scout) IsConfigured() bool {
	return s.client != nil
}

// UpdateAPIKeys validates candidate credentials with one live identity call
// and persists them (encrypted) only on success. The error message never
// contains the secret.
func (f *ScoutFactory) UpdateAPIKeys(ctx context.Context, userID uint, fields services.KeyFields) error {
	if fields.ClientID == "" || fields.ClientSecret == "" {
		return fmt.Errorf("%w: client id and secret are required", ErrInvalidCredentials)
	}

	probe := NewClient(Credentials{
		ClientID:     fields.ClientID,
		ClientSecret: fields.ClientSecret,
		Username:     fields.RedditUsername,
		Password:     fields.RedditPassword,
		UserAgent:    fields.UserAgent,
	}, f.cfg)
	if err := probe.Me(ctx); err != nil {
		log.Printf("API key validation failed for user %d: %v", userID, err)
		return err
	}

	if err := f.keys.UpsertAPIKeys(ctx, userID, fields); err != nil {
		return err
	}
	log.Printf("API keys updated successfully for user %d", userID)
	return nil
}

// SearchSubreddits searches subreddits by query. Results are not filtered by
// content preferences; brief Redis caching absorbs repeated dashboard
// queries.
func (s *Scout) SearchSubreddits(ctx context.Context, query string, limit int) ([]Subreddit, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}

	cacheKey := fmt.Sprintf("reddit:sub_search:%s:%d", query, clampLimit(limit))
	var cached []Subreddit
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	subs, err := s.client.SearchSubreddits(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, subs)
	return subs, nil
}

// GetSubredditPosts fetches a subreddit listing and applies the user's
// content filters after the fetch. Filtering only shrinks the returned set;
// it never reduces the upstream call's cost.
func (s *Scout) GetSubredditPosts(ctx context.Context, name, sort, timeFilter string, limit int) ([]Post, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if timeFilter == "" {
		timeFilter = s.prefs.DefaultTimeFilter
	}

	posts, err := s.client.SubredditPosts(ctx, name, sort, timeFilter, limit)
	if err != nil {
		return nil, err
	}
	return s.filterPosts(posts), nil
}

// SearchPosts searches posts across the given subreddits (or all of Reddit)
// and applies the user's content filters.
func (s *Scout) SearchPosts(ctx context.Context, query string, subreddits []string, sort, timeFilter string, limit int) ([]Post, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if timeFilter == "" {
		timeFilter = s.prefs.DefaultTimeFilter
	}

	posts, err := s.client.SearchPosts(ctx, query, subreddits, sort, timeFilter, limit)
	if err != nil {
		return nil, err
	}
	return s.filterPosts(posts), nil
}

// GetSubredditInfo fetches detailed subreddit metadata
func (s *Scout) GetSubredditInfo(ctx context.Context, name string) (*SubredditInfo, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}

	cacheKey := "reddit:sub_info:" + name
	var cached SubredditInfo
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	info, err := s.client.SubredditAbout(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, info)
	return info, nil
}

// DefaultSubreddits exposes the user's configured subreddit list
func (s *Scout) DefaultSubreddits() []string {
	return s.prefs.Subreddits()
}

// filterPosts applies score/comment thresholds and NSFW/spoiler exclusion
func (s *Scout) filterPosts(posts []Post) []Post {
	filtered := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Score < s.prefs.MinScoreThreshold {
			continue
		}
		if p.NumComments < s.prefs.MinCommentsThreshold {
			continue
		}
		if s.prefs.ExcludeNSFW && p.Over18 {
			continue
		}
		if s.prefs.ExcludeSpoilers && p.Spoiler {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func (s *Scout) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.factory == nil || s.factory.cache == nil {
		return false
	}
	return s.factory.cache.GetJSON(ctx, key, dest) == nil
}

func (s *Scout) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.factory == nil || s.factory.cache == nil {
		return
	}
	if err := s.factory.cache.SetJSON(ctx, key, value, subredditCacheTTL); err != nil {
		log.Printf("Failed to cache reddit response: %v", err)
	}
}
