package cache

import "testing"

func TestRedisOptionsFromURL(t *testing.T) {
	opt, err := redisOptions("redis://:urlpass@localhost:6379/2", "", "")
	if err != nil {
		t.Fatalf("redisOptions failed: %v", err)
	}
	if opt.Password != "urlpass" {
		t.Errorf("password = %q, want urlpass", opt.Password)
	}
	if opt.DB != 2 {
		t.Errorf("db = %d, want 2", opt.DB)
	}
}

func TestRedisOptionsOverrides(t *testing.T) {
	opt, err := redisOptions("redis://:urlpass@localhost:6379/2", "envpass", "5")
	if err != nil {
		t.Fatalf("redisOptions failed: %v", err)
	}
	if opt.Password != "envpass" {
		t.Errorf("password = %q, want envpass", opt.Password)
	}
	if opt.DB != 5 {
		t.Errorf("db = %d, want 5", opt.DB)
	}
}

func TestRedisOptionsBadInput(t *testing.T) {
	if _, err := redisOptions("not-a-url", "", ""); err == nil {
		t.Error("malformed URL accepted")
	}
	if _, err := redisOptions("redis://localhost:6379", "", "three"); err == nil {
		t.Error("non-numeric database accepted")
	}
}
