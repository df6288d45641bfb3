package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DATABASE_URL string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	SQLITE_PATH  string
	PORT         int
	// Credential encryption
	ENCRYPTION_KEY         string
	REQUIRE_ENCRYPTION_KEY bool
	// Session Configuration
	SESSION_TIMEOUT_DAYS int
	// Redis Configuration
	REDIS_URL      string
	REDIS_PASSWORD string
	REDIS_DB       string
	// Reddit API defaults
	REDDIT_USER_AGENT string
	REDDIT_BASE_URL   string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	sessionDays, err := strconv.Atoi(os.Getenv("SESSION_TIMEOUT_DAYS"))
	if err != nil || sessionDays <= 0 {
		sessionDays = 7
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "reddit_scout.db"
	}

	redditUserAgent := os.Getenv("REDDIT_USER_AGENT")
	if redditUserAgent == "" {
		redditUserAgent = "RedditScoutPro/2.0"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DATABASE_URL: os.Getenv("DATABASE_URL"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		SQLITE_PATH:  sqlitePath,
		PORT:         port,
		// Encryption
		ENCRYPTION_KEY:         os.Getenv("ENCRYPTION_KEY"),
		REQUIRE_ENCRYPTION_KEY: os.Getenv("REQUIRE_ENCRYPTION_KEY") == "true",
		// Sessions
		SESSION_TIMEOUT_DAYS: sessionDays,
		// Redis
		REDIS_URL:      os.Getenv("REDIS_URL"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       os.Getenv("REDIS_DB"),
		// Reddit
		REDDIT_USER_AGENT: redditUserAgent,
		REDDIT_BASE_URL:   os.Getenv("REDDIT_BASE_URL"),
	}

	return envVariables, nil
}
