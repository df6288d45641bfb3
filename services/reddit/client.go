package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// AuthBaseURL hosts the OAuth token endpoint
	AuthBaseURL = "https://www.reddit.com"
	// APIBaseURL hosts authenticated API calls
	APIBaseURL = "https://oauth.reddit.com"
	// DefaultTimeout bounds every Reddit API call
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is used when the stored credentials carry none
	DefaultUserAgent = "RedditScoutPro/2.0"
)

var (
	ErrNotConfigured      = errors.New("reddit client is not configured")
	ErrInvalidCredentials = errors.New("invalid API keys")
	ErrUpstream           = errors.New("reddit API request failed")
)

// Credentials is the per-user Reddit application credential set. The account
// username/password pair is optional; when present the password grant is used
// so the client acts as that account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Config holds client construction options. Zero values select production
// endpoints and defaults; tests point BaseURL/AuthURL at a local server.
// UserAgent is the deployment-wide fallback when stored credentials carry
// none of their own.
type Config struct {
	BaseURL     string
	AuthURL     string
	UserAgent   string
	Timeout     time.Duration
	RateLimiter *RateLimiterConfig
	Retry       *RetryConfig
}

// RetryConfig bounds retries on 429 and 5xx responses
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// Client is an authenticated Reddit API client for one credential set.
// Access tokens are fetched lazily and cached until shortly before expiry.
// Safe for concurrent use.
type Client struct {
	creds      Credentials
	baseURL    string
	authURL    string
	httpClient *http.Client
	retry      RetryConfig
	limiter    *RateLimiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Reddit client for the given credentials
func NewClient(creds Credentials, cfg Config) *Client {
	if creds.UserAgent == "" {
		creds.UserAgent = cfg.UserAgent
	}
	if creds.UserAgent == "" {
		creds.UserAgent = DefaultUserAgent
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = APIBaseURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	limiterCfg := DefaultRateLimiterConfig()
	if cfg.RateLimiter != nil {
		limiterCfg = *cfg.RateLimiter
	}

	return &Client{
		creds:      creds,
		baseURL:    cfg.BaseURL,
		authURL:    cfg.AuthURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      retry,
		limiter:    NewRateLimiter(limiterCfg),
	}
}

// token returns a valid access token, fetching a fresh one when the cached
// token is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	if c.creds.Username != "" && c.creds.Password != "" {
		form.Set("grant_type", "password")
		form.Set("username", c.creds.Username)
		form.Set("password", c.creds.Password)
	} else {
		form.Set("grant_type", "client_credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrUpstream, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%w: malformed token response", ErrUpstream)
	}
	if tokenResp.Error != "" || tokenResp.AccessToken == "" {
		// Reddit reports bad app credentials with a 200 + error body
		return "", ErrInvalidCredentials
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// get performs an authenticated GET with rate limiting and bounded retries
// on 429/5xx, decoding the JSON body into dest.
func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", c.creds.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUpstream, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUpstream, readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, dest); err != nil {
				return fmt.Errorf("%w: malformed response", ErrUpstream)
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			return ErrInvalidCredentials
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
			continue
		default:
			return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
		}
	}
	return lastErr
}

// backoff is exponential: initial * 2^(attempt-1), capped at max
func (c *Client) backoff(attempt int) time.Duration {
	d := c.retry.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.retry.MaxBackoff {
			return c.retry.MaxBackoff
		}
	}
	if d > c.retry.MaxBackoff {
		return c.retry.MaxBackoff
	}
	return d
}

// Me issues the lightweight identity call used to validate credentials
// before they are persisted.
func (c *Client) Me(ctx context.Context) error {
	var me struct {
		Name string `json:"name"`
	}
	return c.get(ctx, "/api/v1/me", nil, &me)
}

// Post is a normalized Reddit submission
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	IsSelf      bool    `json:"is_self"`
	Over18      bool    `json:"over_18"`
	Spoiler     bool    `json:"spoiler"`
	Stickied    bool    `json:"stickied"`
	Domain      string  `json:"domain"`
	Subreddit   string  `json:"subreddit"`
}

// Subreddit is a normalized subreddit search result
type Subreddit struct {
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Subscribers int     `json:"subscribers"`
	CreatedUTC  float64 `json:"created_utc"`
	Over18      bool    `json:"over18"`
}

// SubredditInfo is the detailed subreddit metadata shape
type SubredditInfo struct {
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	PublicDescription string  `json:"public_description"`
	Subscribers       int     `json:"subscribers"`
	ActiveUserCount   int     `json:"active_user_count"`
	CreatedUTC        float64 `json:"created_utc"`
	Over18            bool    `json:"over18"`
	Lang              string  `json:"lang"`
	SubredditType     string  `json:"subreddit_type"`
	URL               string  `json:"url"`
}

// Reddit listing envelope: {"data": {"children": [{"data": {...}}]}}
type listing struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	IsSelf      bool    `json:"is_self"`
	Over18      bool    `json:"over_18"`
	Spoiler     bool    `json:"spoiler"`
	Stickied    bool    `json:"stickied"`
	Domain      string  `json:"domain"`
	Subreddit   string  `json:"subreddit"`
}

func (p rawPost) normalize() Post {
	author := p.Author
	if author == "" {
		author = "[deleted]"
	}
	return Post{
		ID:          p.ID,
		Title:       p.Title,
		Author:      author,
		Score:       p.Score,
		UpvoteRatio: p.UpvoteRatio,
		NumComments: p.NumComments,
		CreatedUTC:  p.CreatedUTC,
		URL:         p.URL,
		Permalink:   "https://reddit.com" + p.Permalink,
		Selftext:    p.Selftext,
		IsSelf:      p.IsSelf,
		Over18:      p.Over18,
		Spoiler:     p.Spoiler,
		Stickied:    p.Stickied,
		Domain:      p.Domain,
		Subreddit:   p.Subreddit,
	}
}

// SearchSubreddits searches subreddits by name and description
func (c *Client) SearchSubreddits(ctx context.Context, query string, limit int) ([]Subreddit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var resp listing
	if err := c.get(ctx, "/subreddits/search", q, &resp); err != nil {
		return nil, err
	}

	subs := make([]Subreddit, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		var raw struct {
			DisplayName       string  `json:"display_name"`
			Title             string  `json:"title"`
			PublicDescription string  `json:"public_description"`
			Subscribers       int     `json:"subscribers"`
			CreatedUTC        float64 `json:"created_utc"`
			Over18            bool    `json:"over18"`
		}
		if err := json.Unmarshal(child.Data, &raw); err != nil {
			continue
		}
		subs = append(subs, Subreddit{
			Name:        raw.DisplayName,
			Title:       raw.Title,
			Description: raw.PublicDescription,
			Subscribers: raw.Subscribers,
			CreatedUTC:  raw.CreatedUTC,
			Over18:      raw.Over18,
		})
	}
	return subs, nil
}

// SubredditPosts fetches a subreddit listing. sort is one of hot, new, top,
// rising; timeFilter applies to top only.
func (c *Client) SubredditPosts(ctx context.Context, name, sort, timeFilter string, limit int) ([]Post, error) {
	switch sort {
	case "hot", "new", "top", "rising":
	default:
		sort = "hot"
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	if sort == "top" && timeFilter != "" {
		q.Set("t", timeFilter)
	}

	var resp listing
	if err := c.get(ctx, "/r/"+url.PathEscape(name)+"/"+sort, q, &resp); err != nil {
		return nil, err
	}
	return decodePosts(resp), nil
}

// SearchPosts searches for posts. An empty subreddit list searches all of
// Reddit; multiple names are joined so one call covers all of them.
func (c *Client) SearchPosts(ctx context.Context, query string, subreddits []string, sort, timeFilter string, limit int) ([]Post, error) {
	target := "all"
	restrict := "false"
	if len(subreddits) > 0 {
		target = strings.Join(subreddits, "+")
		restrict = "true"
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	q.Set("restrict_sr", restrict)
	if sort != "" {
		q.Set("sort", sort)
	}
	if timeFilter != "" {
		q.Set("t", timeFilter)
	}

	var resp listing
	if err := c.get(ctx, "/r/"+url.PathEscape(target)+"/search", q, &resp); err != nil {
		return nil, err
	}
	return decodePosts(resp), nil
}

// SubredditAbout fetches detailed subreddit metadata
func (c *Client) SubredditAbout(ctx context.Context, name string) (*SubredditInfo, error) {
	var resp struct {
		Data struct {
			DisplayName       string  `json:"display_name"`
			Title             string  `json:"title"`
			Description       string  `json:"description"`
			PublicDescription string  `json:"public_description"`
			Subscribers       int     `json:"subscribers"`
			ActiveUserCount   int     `json:"active_user_count"`
			CreatedUTC        float64 `json:"created_utc"`
			Over18            bool    `json:"over18"`
			Lang              string  `json:"lang"`
			SubredditType     string  `json:"subreddit_type"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/r/"+url.PathEscape(name)+"/about", nil, &resp); err != nil {
		return nil, err
	}

	return &SubredditInfo{
		Name:              resp.Data.DisplayName,
		Title:             resp.Data.Title,
		Description:       resp.Data.Description,
		PublicDescription: resp.Data.PublicDescription,
		Subscribers:       resp.Data.Subscribers,
		ActiveUserCount:   resp.Data.ActiveUserCount,
		CreatedUTC:        resp.Data.CreatedUTC,
		Over18:            resp.Data.Over18,
		Lang:              resp.Data.Lang,
		SubredditType:     resp.Data.SubredditType,
		URL:               "https://reddit.com/r/" + name,
	}, nil
}

func decodePosts(resp listing) []Post {
	posts := make([]Post, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		var raw rawPost
		if err := json.Unmarshal(child.Data, &raw); err != nil {
			continue
		}
		posts = append(posts, raw.normalize())
	}
	return posts
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 25
	}
	if limit > 100 {
		return 100
	}
	return limit
}
