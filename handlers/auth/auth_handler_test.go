package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/reddit-scout-api/model"
	"github.com/sahilchouksey/reddit-scout-api/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Session{}, &model.PasswordResetToken{}, &model.UserActivity{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	authService := services.NewAuthService(db, 7)
	activityService := services.NewActivityService(db)
	handler := NewAuthHandler(authService, activityService, nil)

	app := fiber.New()
	app.Post("/register", handler.Register)
	app.Post("/login", handler.Login)
	app.Post("/forgot-password", handler.ForgotPassword)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	app, db := newTestApp(t)

	cases := []map[string]string{
		{},
		{"username": "alice", "password": "Sup3rSecret"},
		{"username": "alice", "email": "not-an-email", "password": "Sup3rSecret"},
		{"username": "al", "email": "alice@example.com", "password": "Sup3rSecret"},
		{"username": "alice", "email": "alice@example.com", "password": "short"},
	}

	for _, body := range cases {
		resp := postJSON(t, app, "/register", body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("register %v: status = %d, want 422", body, resp.StatusCode)
		}
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 0 {
		t.Errorf("invalid registrations created %d users", count)
	}
}

func TestRegisterValidBody(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Sup3rSecret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	for _, body := range []map[string]string{
		{},
		{"identifier": "alice"},
		{"password": "Sup3rSecret"},
	} {
		resp := postJSON(t, app, "/login", body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("login %v: status = %d, want 422", body, resp.StatusCode)
		}
	}
}

func TestValidationErrorNamesFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/register", map[string]string{
		"username": "alice",
		"email":    "not-an-email",
		"password": "Sup3rSecret",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, "VALIDATION_ERROR") {
		t.Errorf("body missing error code: %s", body)
	}
	if !strings.Contains(body, "email") {
		t.Errorf("body does not name the failing field: %s", body)
	}
}

func TestForgotPasswordTokenLogging(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Sup3rSecret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	t.Setenv("GO_ENV", "production")
	resp = postJSON(t, app, "/forgot-password", map[string]string{"email": "alice@example.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forgot-password status = %d, want 200", resp.StatusCode)
	}
	if strings.Contains(buf.String(), "alice@example.com") {
		t.Errorf("production log leaks the email and token: %s", buf.String())
	}

	buf.Reset()
	t.Setenv("GO_ENV", "development")
	resp = postJSON(t, app, "/forgot-password", map[string]string{"email": "alice@example.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forgot-password status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(buf.String(), "alice@example.com") {
		t.Errorf("development log should carry the token for operator relay: %s", buf.String())
	}
}
