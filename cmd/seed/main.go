package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sahilchouksey/reddit-scout-api/database"
	"github.com/sahilchouksey/reddit-scout-api/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Reddit Scout - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	username := os.Getenv("SEED_USERNAME")
	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if username == "" || email == "" || password == "" {
		fmt.Println("SEED_USERNAME, SEED_EMAIL and SEED_PASSWORD must all be set.")
		fmt.Println("No user created.")
		return
	}

	authService := services.NewAuthService(store.DB(), 0)
	result := authService.Register(context.Background(), username, email, password)
	if !result.Success {
		log.Fatalf("Seeding failed: %s", result.Message)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Printf("Created user %s (id %d)\n", result.Username, result.UserID)
	fmt.Println(separator)
}
