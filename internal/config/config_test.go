package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	c := Config{
		App:     AppConfig{Env: "local", Port: 8080},
		DB:      DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "hotline"},
		Redis:   RedisConfig{Host: "localhost", Port: 6379},
		Auth:    AuthConfig{JWTSecret: "secret"},
		Storage: StorageConfig{Endpoint: "localhost:9000", AccessKey: "minio", SecretKey: "minio123"},
	}
	c.applyDefaults()
	return c
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	c.Auth.JWTIssuer = "iss"
	c.Auth.JWTAudience = "aud"
	c.Twilio = TwilioConfig{AuthToken: "tok", ValidateSignatures: true}
	c.App.PublicBaseURL = "https://hooks.example.com"
	c.applyDefaults()

	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected DB_SSLMODE error, got %v", err)
	}
}

func TestApplyDefaults_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Routing.Voice != "alice" || c.Routing.Language != "en-US" {
		t.Fatalf("unexpected voice defaults: %+v", c.Routing)
	}
	if c.Routing.AudioURLTTL != time.Hour {
		t.Fatalf("expected 1h audio url ttl, got %s", c.Routing.AudioURLTTL)
	}
	if c.Storage.Bucket != "audio-assets" {
		t.Fatalf("expected audio-assets bucket, got %q", c.Storage.Bucket)
	}
}

func TestValidate_AudioURLTTLFloor(t *testing.T) {
	c := validLocal()
	c.Routing.AudioURLTTL = 10 * time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for audio url ttl under 1h")
	}
}

func TestValidate_SignatureValidationNeedsTokenAndBaseURL(t *testing.T) {
	c := validLocal()
	c.Twilio.ValidateSignatures = true
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "TWILIO_AUTH_TOKEN") || !strings.Contains(err.Error(), "PUBLIC_BASE_URL") {
		t.Fatalf("expected both token and base url errors, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "hotline")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_ENDPOINT", "minio:9000")
	t.Setenv("STORAGE_ACCESS_KEY", "minio")
	t.Setenv("STORAGE_SECRET_KEY", "minio123")
	t.Setenv("ROUTING_LOOKUP_TIMEOUT", "750ms")
	t.Setenv("ROUTING_CALL_LOG_WORKERS", "8")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Routing.LookupTimeout != 750*time.Millisecond {
		t.Fatalf("expected 750ms lookup timeout, got %s", c.Routing.LookupTimeout)
	}
	if c.Routing.CallLogWorkers != 8 {
		t.Fatalf("expected 8 workers, got %d", c.Routing.CallLogWorkers)
	}
	if c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestLoad_ReportsBadInteger(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_PORT must be an integer") {
		t.Fatalf("expected integer parse error, got %v", err)
	}
}

func TestPostgresURL(t *testing.T) {
	c := validLocal()
	got := c.PostgresURL()
	want := "postgres://postgres:x@localhost:5432/hotline?sslmode=disable"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLoadDatabase_OnlyNeedsDB(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "hotline")

	c, err := LoadDatabase()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.PostgresURL() != "postgres://postgres@db:5432/hotline?sslmode=disable" {
		t.Fatalf("unexpected url %q", c.PostgresURL())
	}

	if _, err := Load(); err == nil {
		t.Fatalf("full Load must still require the remaining sections")
	}
}
