package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/config"
	"github.com/sahilchouksey/reddit-scout-api/database"
	"github.com/sahilchouksey/reddit-scout-api/handlers"
	apikey_handlers "github.com/sahilchouksey/reddit-scout-api/handlers/apikey"
	auth_handlers "github.com/sahilchouksey/reddit-scout-api/handlers/auth"
	preferences_handlers "github.com/sahilchouksey/reddit-scout-api/handlers/preferences"
	reddit_handlers "github.com/sahilchouksey/reddit-scout-api/handlers/reddit"
	"github.com/sahilchouksey/reddit-scout-api/services"
	redditsvc "github.com/sahilchouksey/reddit-scout-api/services/reddit"
	"github.com/sahilchouksey/reddit-scout-api/utils/cache"
	"github.com/sahilchouksey/reddit-scout-api/utils/crypto"
	"github.com/sahilchouksey/reddit-scout-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db := store.DB()

	// Credential cipher. A missing or unusable key falls back to a generated
	// one unless REQUIRE_ENCRYPTION_KEY=true, in which case startup fails.
	cipher, err := crypto.Initialize(getEnv.ENCRYPTION_KEY, getEnv.REQUIRE_ENCRYPTION_KEY)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher:", err)
	}

	// Redis cache for brute force protection and Reddit response caching.
	// The app runs without it; protection and caching are just disabled.
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL, getEnv.REDIS_PASSWORD, getEnv.REDIS_DB)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and response caching will be disabled.", err)
			redisCache = nil
		}
	}

	bruteForceProtection := middleware.NewBruteForceProtection(redisCache)

	// Services
	authService := services.NewAuthService(db, getEnv.SESSION_TIMEOUT_DAYS)
	activityService := services.NewActivityService(db)
	apiKeyService := services.NewAPIKeyService(db, cipher)
	preferencesService := services.NewPreferencesService(db)

	scoutFactory := redditsvc.NewScoutFactory(apiKeyService, preferencesService, redisCache, redditsvc.Config{
		BaseURL:   getEnv.REDDIT_BASE_URL,
		UserAgent: getEnv.REDDIT_USER_AGENT,
	})

	// Middleware & handlers
	authMiddleware := middleware.NewAuthMiddleware(authService, apiKeyService)
	authHandler := auth_handlers.NewAuthHandler(authService, activityService, bruteForceProtection)
	apiKeyHandler := apikey_handlers.NewAPIKeyHandler(apiKeyService, activityService, scoutFactory)
	preferencesHandler := preferences_handlers.NewPreferencesHandler(preferencesService)
	redditHandler := reddit_handlers.NewRedditHandler(scoutFactory, activityService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/health", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", bruteForceProtection.CheckLocked(), authHandler.Login)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Get("/sessions", authMiddleware.Required(), authHandler.Sessions)

	// Reddit API credential routes (protected)
	keys := api.Group("/keys", authMiddleware.Required())
	keys.Get("/", apiKeyHandler.GetKeys)
	keys.Put("/", apiKeyHandler.UpdateKeys)
	keys.Delete("/", apiKeyHandler.DeleteKeys)

	// Preference routes (protected)
	prefs := api.Group("/preferences", authMiddleware.Required())
	prefs.Get("/", preferencesHandler.GetPreferences)
	prefs.Put("/", preferencesHandler.UpdatePreferences)

	// Reddit data routes (protected, require stored credentials)
	reddit := api.Group("/reddit", authMiddleware.Required(), authMiddleware.RequireRedditConfig())
	reddit.Get("/subreddits/search", redditHandler.SearchSubreddits)
	reddit.Get("/search", redditHandler.SearchPosts)
	reddit.Get("/r/:name/posts", redditHandler.SubredditPosts)
	reddit.Get("/r/:name/about", redditHandler.SubredditAbout)
	reddit.Get("/r/:name/sentiment", redditHandler.SubredditSentiment)
	reddit.Get("/r/:name/wordcloud", redditHandler.SubredditWordcloud)
	reddit.Get("/r/:name/analytics", redditHandler.SubredditAnalytics)
}
