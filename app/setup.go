package app

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/reddit-scout-api/api"
	"github.com/sahilchouksey/reddit-scout-api/config"
	"github.com/sahilchouksey/reddit-scout-api/database"
	"github.com/sahilchouksey/reddit-scout-api/router"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"github.com/sahilchouksey/reddit-scout-api/services/cron"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the database is reachable\n")
		print("With no DATABASE_URL or DB_* variables set, a local SQLite file is used\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		authService := services.NewAuthService(store.DB(), getEnv.SESSION_TIMEOUT_DAYS)
		activityService := services.NewActivityService(store.DB())
		cronManager = cron.NewCronManager(store.DB(), authService, activityService)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store)

	// Get the PORT & Start the Server
	return server.Run()
}
