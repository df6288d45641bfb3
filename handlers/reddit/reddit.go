package reddit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/services"
	redditsvc "github.com/sahilchouksey/reddit-scout-api/services/reddit"
	"github.com/sahilchouksey/reddit-scout-api/utils/middleware"
	"github.com/sahilchouksey/reddit-scout-api/utils/response"
)

// RedditHandler serves subreddit discovery and analytics endpoints through
// the per-user scout.
type RedditHandler struct {
	scoutFactory    *redditsvc.ScoutFactory
	activityService *services.ActivityService
}

// NewRedditHandler creates a new Reddit handler
func NewRedditHandler(scoutFactory *redditsvc.ScoutFactory, activityService *services.ActivityService) *RedditHandler {
	return &RedditHandler{
		scoutFactory:    scoutFactory,
		activityService: activityService,
	}
}

// scoutFor builds the authenticated user's scout or writes the error
// response. The bool reports whether the caller may proceed.
func (h *RedditHandler) scoutFor(c *fiber.Ctx) (*redditsvc.Scout, bool, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, false, response.Unauthorized(c, "User not authenticated")
	}

	scout, err := h.scoutFactory.ForUser(c.Context(), userID)
	if err != nil {
		return nil, false, response.InternalServerError(c, "Failed to load Reddit configuration")
	}
	if !scout.IsConfigured() {
		return nil, false, response.PreconditionFailed(c, "Reddit API credentials not configured")
	}

	return scout, true, nil
}

// upstreamError maps scout errors onto HTTP responses
func upstreamError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, redditsvc.ErrNotConfigured):
		return response.PreconditionFailed(c, "Reddit API credentials not configured")
	case errors.Is(err, redditsvc.ErrInvalidCredentials):
		return response.BadGateway(c, "Reddit rejected the stored credentials")
	default:
		return response.BadGateway(c, "Reddit request failed")
	}
}

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "25"))
	if err != nil {
		return 25
	}
	return limit
}

// SearchSubreddits handles GET /api/v1/reddit/subreddits/search?q=
func (h *RedditHandler) SearchSubreddits(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	subreddits, err := scout.SearchSubreddits(c.Context(), query, queryLimit(c))
	if err != nil {
		return upstreamError(c, err)
	}

	if userID, ok := middleware.GetUserID(c); ok {
		h.activityService.Record(
			c.Context(), userID, model.ActivityTypeSubredditSearch,
			"", c.IP(), c.Get("User-Agent"), fmt.Sprintf(`{"query":%q}`, query),
		)
	}

	return response.Success(c, fiber.Map{
		"query":      query,
		"subreddits": subreddits,
		"count":      len(subreddits),
	})
}

// SubredditPosts handles GET /api/v1/reddit/r/:name/posts
func (h *RedditHandler) SubredditPosts(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return response.BadRequest(c, "Subreddit name is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	sort := c.Query("sort", "hot")
	timeFilter := c.Query("t", "")

	posts, err := scout.GetSubredditPosts(c.Context(), name, sort, timeFilter, queryLimit(c))
	if err != nil {
		return upstreamError(c, err)
	}

	return response.Success(c, fiber.Map{
		"subreddit": name,
		"sort":      sort,
		"posts":     posts,
		"count":     len(posts),
	})
}

// SearchPosts handles GET /api/v1/reddit/search?q=
func (h *RedditHandler) SearchPosts(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	// Comma-separated subreddit list; empty means the user's defaults
	var subreddits []string
	if raw := strings.TrimSpace(c.Query("subreddits")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				subreddits = append(subreddits, s)
			}
		}
	} else {
		subreddits = scout.DefaultSubreddits()
	}

	sort := c.Query("sort", "relevance")
	timeFilter := c.Query("t", "")

	posts, err := scout.SearchPosts(c.Context(), query, subreddits, sort, timeFilter, queryLimit(c))
	if err != nil {
		return upstreamError(c, err)
	}

	if userID, ok := middleware.GetUserID(c); ok {
		h.activityService.Record(
			c.Context(), userID, model.ActivityTypePostSearch,
			"", c.IP(), c.Get("User-Agent"), fmt.Sprintf(`{"query":%q}`, query),
		)
	}

	return response.Success(c, fiber.Map{
		"query":      query,
		"subreddits": subreddits,
		"posts":      posts,
		"count":      len(posts),
	})
}

// SubredditAbout handles GET /api/v1/reddit/r/:name/about
func (h *RedditHandler) SubredditAbout(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return response.BadRequest(c, "Subreddit name is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	info, err := scout.GetSubredditInfo(c.Context(), name)
	if err != nil {
		return upstreamError(c, err)
	}

	return response.Success(c, info)
}

// SubredditSentiment handles GET /api/v1/reddit/r/:name/sentiment
func (h *RedditHandler) SubredditSentiment(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return response.BadRequest(c, "Subreddit name is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	report, err := scout.AnalyzeSentiment(c.Context(), name, queryLimit(c))
	if err != nil {
		return upstreamError(c, err)
	}

	return response.Success(c, fiber.Map{
		"subreddit": name,
		"sentiment": report,
	})
}

// SubredditWordcloud handles GET /api/v1/reddit/r/:name/wordcloud
func (h *RedditHandler) SubredditWordcloud(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return response.BadRequest(c, "Subreddit name is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	topN, err := strconv.Atoi(c.Query("top", "50"))
	if err != nil || topN < 1 {
		topN = 50
	}

	words, err := scout.WordFrequencies(c.Context(), name, queryLimit(c), topN)
	if err != nil {
		return upstreamError(c, err)
	}

	return response.Success(c, fiber.Map{
		"subreddit": name,
		"words":     words,
	})
}

// SubredditAnalytics handles GET /api/v1/reddit/r/:name/analytics
func (h *RedditHandler) SubredditAnalytics(c *fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return response.BadRequest(c, "Subreddit name is required")
	}

	scout, ok, errResp := h.scoutFor(c)
	if !ok {
		return errResp
	}

	analytics, err := scout.Analytics(c.Context(), name, queryLimit(c))
	if err != nil {
		return upstreamError(c, err)
	}

	return response.Success(c, fiber.Map{
		"subreddit": name,
		"analytics": analytics,
	})
}
