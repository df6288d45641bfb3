package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fastConfig points a client at a test server with retries and rate limiting
// tightened so tests stay quick.
func fastConfig(serverURL string) Config {
	return Config{
		BaseURL: serverURL,
		AuthURL: serverURL,
		Timeout: 2 * time.Second,
		Retry: &RetryConfig{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
		RateLimiter: &RateLimiterConfig{
			MaxTokens:   1000,
			RefillRate:  1000,
			MinInterval: 0,
		},
	}
}

func tokenResponse(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": "test-token",
		"expires_in":   3600,
	})
}

func listingBody(posts ...map[string]interface{}) map[string]interface{} {
	children := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		children = append(children, map[string]interface{}{"data": p})
	}
	return map[string]interface{}{
		"data": map[string]interface{}{"children": children},
	}
}

func TestClientTokenCaching(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			atomic.AddInt32(&tokenCalls, 1)
			if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			tokenResponse(w)
		case "/api/v1/me":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"name": "tester"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := client.Me(ctx); err != nil {
			t.Fatalf("Me call %d failed: %v", i, err)
		}
	}

	if calls := atomic.LoadInt32(&tokenCalls); calls != 1 {
		t.Errorf("token endpoint hit %d times, want 1 (cached)", calls)
	}
}

func TestClientPasswordGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/access_token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		r.ParseForm()
		if r.FormValue("grant_type") != "password" ||
			r.FormValue("username") != "alice" || r.FormValue("password") != "pw" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		tokenResponse(w)
	}))
	defer server.Close()

	client := NewClient(Credentials{
		ClientID: "id", ClientSecret: "secret",
		Username: "alice", Password: "pw",
	}, fastConfig(server.URL))

	if _, err := client.token(context.Background()); err != nil {
		t.Fatalf("password grant failed: %v", err)
	}
}

func TestClientInvalidCredentials(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"401 status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"200 with error body": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		},
	}
	for name, handler := range cases {
		server := httptest.NewServer(handler)
		client := NewClient(Credentials{ClientID: "id", ClientSecret: "bad"}, fastConfig(server.URL))
		err := client.Me(context.Background())
		server.Close()

		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: error = %v, want ErrInvalidCredentials", name, err)
		}
	}
}

func TestClientRetriesOn5xx(t *testing.T) {
	var apiCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/access_token" {
			tokenResponse(w)
			return
		}
		if atomic.AddInt32(&apiCalls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"name": "tester"})
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	if err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me failed despite retries: %v", err)
	}
	if calls := atomic.LoadInt32(&apiCalls); calls != 3 {
		t.Errorf("API hit %d times, want 3 (two failures + success)", calls)
	}
}

func TestClientRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/access_token" {
			tokenResponse(w)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	if err := client.Me(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Errorf("error after exhausted retries = %v, want ErrUpstream", err)
	}
}

func TestSubredditPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			tokenResponse(w)
		case "/r/golang/hot":
			json.NewEncoder(w).Encode(listingBody(
				map[string]interface{}{
					"id": "p1", "title": "First", "author": "alice",
					"score": 42, "num_comments": 7, "permalink": "/r/golang/comments/p1/",
				},
				map[string]interface{}{
					"id": "p2", "title": "Deleted author", "author": "",
					"score": 1, "num_comments": 0, "permalink": "/r/golang/comments/p2/",
				},
			))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	posts, err := client.SubredditPosts(context.Background(), "golang", "hot", "", 25)
	if err != nil {
		t.Fatalf("SubredditPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].Title != "First" || posts[0].Score != 42 {
		t.Errorf("first post mismatch: %+v", posts[0])
	}
	if posts[0].Permalink != "https://reddit.com/r/golang/comments/p1/" {
		t.Errorf("permalink = %q", posts[0].Permalink)
	}
	if posts[1].Author != "[deleted]" {
		t.Errorf("missing author normalized to %q, want [deleted]", posts[1].Author)
	}
}

func TestSubredditPostsSortWhitelist(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/access_token" {
			tokenResponse(w)
			return
		}
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(listingBody())
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))

	if _, err := client.SubredditPosts(context.Background(), "golang", "definitely-not-a-sort", "", 10); err != nil {
		t.Fatalf("SubredditPosts failed: %v", err)
	}
	if gotPath != "/r/golang/hot" {
		t.Errorf("unknown sort hit %q, want fallback to hot", gotPath)
	}
}

func TestSearchPostsScoping(t *testing.T) {
	var gotPath, gotRestrict string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/access_token" {
			tokenResponse(w)
			return
		}
		gotPath = r.URL.Path
		gotRestrict = r.URL.Query().Get("restrict_sr")
		json.NewEncoder(w).Encode(listingBody())
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	ctx := context.Background()

	if _, err := client.SearchPosts(ctx, "gopher", []string{"golang", "programming"}, "", "", 10); err != nil {
		t.Fatalf("scoped search failed: %v", err)
	}
	if gotPath != "/r/golang+programming/search" || gotRestrict != "true" {
		t.Errorf("scoped search: path %q restrict %q", gotPath, gotRestrict)
	}

	if _, err := client.SearchPosts(ctx, "gopher", nil, "", "", 10); err != nil {
		t.Fatalf("global search failed: %v", err)
	}
	if gotPath != "/r/all/search" || gotRestrict != "false" {
		t.Errorf("global search: path %q restrict %q", gotPath, gotRestrict)
	}
}

func TestSearchSubreddits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			tokenResponse(w)
		case "/subreddits/search":
			json.NewEncoder(w).Encode(listingBody(
				map[string]interface{}{
					"display_name": "golang", "title": "The Go Programming Language",
					"public_description": "gophers", "subscribers": 250000,
				},
			))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	subs, err := client.SearchSubreddits(context.Background(), "go", 10)
	if err != nil {
		t.Fatalf("SearchSubreddits failed: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "golang" || subs[0].Subscribers != 250000 {
		t.Errorf("subreddits = %+v", subs)
	}
}

func TestSubredditAbout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			tokenResponse(w)
		case "/r/golang/about":
			fmt.Fprint(w, `{"data":{"display_name":"golang","title":"Go","subscribers":250000,"subreddit_type":"public"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Credentials{ClientID: "id", ClientSecret: "secret"}, fastConfig(server.URL))
	info, err := client.SubredditAbout(context.Background(), "golang")
	if err != nil {
		t.Fatalf("SubredditAbout failed: %v", err)
	}
	if info.Name != "golang" || info.Subscribers != 250000 {
		t.Errorf("info = %+v", info)
	}
	if info.URL != "https://reddit.com/r/golang" {
		t.Errorf("URL = %q", info.URL)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-5: 25, 0: 25, 1: 1, 50: 50, 100: 100, 500: 100}
	for input, want := range cases {
		if got := clampLimit(input); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", input, got, want)
		}
	}
}

func TestClientUserAgentFallbacks(t *testing.T) {
	var lastUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/access_token" {
			tokenResponse(w)
			return
		}
		lastUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"name":"tester"}`)
	}))
	defer server.Close()

	ctx := context.Background()
	creds := Credentials{ClientID: "id", ClientSecret: "secret"}

	cfg := fastConfig(server.URL)
	cfg.UserAgent = "fleet-agent/1.0"
	if err := NewClient(creds, cfg).Me(ctx); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if lastUA != "fleet-agent/1.0" {
		t.Errorf("user agent = %q, want the configured fallback", lastUA)
	}

	// Per-user value wins over the configured fallback
	creds.UserAgent = "custom/2.0"
	if err := NewClient(creds, cfg).Me(ctx); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if lastUA != "custom/2.0" {
		t.Errorf("user agent = %q, want the per-user value", lastUA)
	}

	// Neither set: package default
	creds.UserAgent = ""
	if err := NewClient(creds, fastConfig(server.URL)).Me(ctx); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if lastUA != DefaultUserAgent {
		t.Errorf("user agent = %q, want %q", lastUA, DefaultUserAgent)
	}
}
