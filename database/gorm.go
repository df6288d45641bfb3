package database

import (
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/reddit-scout-api/config"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the minimal surface the app needs from the store
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	DB() *gorm.DB
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM opens the database connection. PostgreSQL is used when
// DATABASE_URL or the DB_* variables are set; otherwise it falls back to a
// local SQLite file so the app runs without any external services.
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	// TranslateError maps driver duplicate-key errors onto
	// gorm.ErrDuplicatedKey, which registration relies on.
	gormConfig := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	var db *gorm.DB
	switch {
	case getEnv.DATABASE_URL != "":
		db, err = gorm.Open(postgres.Open(getEnv.DATABASE_URL), gormConfig)
		if err != nil {
			log.Println("Unable to connect to PostgreSQL with GORM:", err)
			return nil, err
		}
		log.Println("Successfully connected to PostgreSQL Database with GORM.")

	case getEnv.DB_NAME != "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			getEnv.DB_HOST,
			getEnv.DB_USER_NAME,
			getEnv.DB_PASSWORD,
			getEnv.DB_NAME,
			getEnv.DB_PORT,
			getEnv.DB_SSL_MODE,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			log.Println("Unable to connect to PostgreSQL with GORM:", err)
			return nil, err
		}
		log.Println("Successfully connected to PostgreSQL Database with GORM.")

	default:
		db, err = gorm.Open(sqlite.Open(getEnv.SQLITE_PATH), gormConfig)
		if err != nil {
			log.Println("Unable to open SQLite database:", err)
			return nil, err
		}
		log.Printf("No PostgreSQL configured, using SQLite database at %s.", getEnv.SQLITE_PATH)
	}

	// Connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &GORMStore{db: db}, nil
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Account models
		&model.User{},
		&model.Session{},
		&model.PasswordResetToken{},

		// Per-user Reddit credentials & preferences
		&model.UserAPIKey{},
		&model.UserPreference{},

		// Audit & logging models
		&model.UserActivity{},
		&model.CronJobLog{},
	)

	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM database connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
