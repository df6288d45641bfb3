package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sahilchouksey/reddit-scout-api/database"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/services"
)

// One-shot maintenance sweep: removes expired sessions and reset tokens,
// then prints the recent cron job history. Useful when the in-process cron
// scheduler is disabled.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	authService := services.NewAuthService(store.DB(), 0)

	sessions, err := authService.CleanupExpiredSessions(ctx)
	if err != nil {
		log.Fatalf("Session sweep failed: %v", err)
	}
	fmt.Printf("Removed %d expired sessions\n", sessions)

	tokens, err := authService.CleanupExpiredResetTokens(ctx)
	if err != nil {
		log.Fatalf("Reset token sweep failed: %v", err)
	}
	fmt.Printf("Removed %d expired reset tokens\n", tokens)

	var logs []model.CronJobLog
	if err := store.DB().Order("started_at DESC").Limit(10).Find(&logs).Error; err != nil {
		log.Fatalf("Failed to load cron job history: %v", err)
	}

	if len(logs) == 0 {
		fmt.Println("No cron job history recorded")
		return
	}

	fmt.Println("\nRecent cron jobs:")
	for _, entry := range logs {
		line := fmt.Sprintf("  %s  %-28s %s", entry.StartedAt.Format("2006-01-02 15:04:05"), entry.JobName, entry.Status)
		if entry.Message != "" {
			line += "  " + entry.Message
		}
		if entry.ErrorMsg != "" {
			line += "  error: " + entry.ErrorMsg
		}
		fmt.Println(line)
	}
}
