package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"SERVER_ADDR", "SERVER_PORT", "APP_BASE_URL", "LOG_LEVEL",
		"STORE_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "RUN_MIGRATIONS",
		"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "COOKIE_SECURE",
		"STORAGE_DRIVER", "MEDIA_ROOT", "MEDIA_URL", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
		"REDIS_ADDR", "MENU_CACHE_TTL", "SMTP_HOST", "SMTP_FROM",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_TRUST_PROXY", "BLOCKED_EMAIL_DOMAINS", "MAX_REQUEST_BODY_SIZE", "MAX_UPLOAD_SIZE", "PASSWORD_MIN_LENGTH",
	} {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "test-secret-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr() = %q, want %q", cfg.ListenAddr(), "0.0.0.0:8080")
	}
	if cfg.AppBaseURL != "http://localhost:8080" {
		t.Errorf("AppBaseURL = %q", cfg.AppBaseURL)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverPostgres)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, want %d", cfg.DBPort, 5432)
	}
	if !cfg.RunMigrations {
		t.Error("RunMigrations should default to true")
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, 15*time.Minute)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want %v", cfg.RefreshTokenTTL, 7*24*time.Hour)
	}
	if cfg.Storage.Driver != StorageDriverLocal || cfg.Storage.MediaURL != "/media/" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Redis.Enabled() {
		t.Error("Redis should be disabled without REDIS_ADDR")
	}
	if cfg.RateLimit.TrustProxy {
		t.Error("RateLimit.TrustProxy should default to false")
	}
	if cfg.SMTP.Enabled() {
		t.Error("SMTP should be disabled without SMTP_HOST")
	}
	if cfg.Validation.MaxUploadSize != 5<<20 {
		t.Errorf("MaxUploadSize = %d", cfg.Validation.MaxUploadSize)
	}
	if cfg.PasswordPolicy.MinLength != 8 {
		t.Errorf("PasswordPolicy.MinLength = %d, want 8", cfg.PasswordPolicy.MinLength)
	}
}

func TestLoad_BlockedEmailDomains(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "test-secret-key")
	t.Setenv("BLOCKED_EMAIL_DOMAINS", " mailinator.com, ,tempmail.com ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"mailinator.com", "tempmail.com"}
	if len(cfg.Validation.BlockedEmailDomains) != len(want) {
		t.Fatalf("BlockedEmailDomains = %v, want %v", cfg.Validation.BlockedEmailDomains, want)
	}
	for i := range want {
		if cfg.Validation.BlockedEmailDomains[i] != want[i] {
			t.Errorf("BlockedEmailDomains[%d] = %q, want %q", i, cfg.Validation.BlockedEmailDomains[i], want[i])
		}
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Error("Load should fail when JWT_SECRET is not set")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "custom-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_BASE_URL", "https://menus.example.com/")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MENU_CACHE_TTL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 9090)
	}
	if cfg.AppBaseURL != "https://menus.example.com" {
		t.Errorf("AppBaseURL = %q, want trailing slash trimmed", cfg.AppBaseURL)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want %v", cfg.AccessTokenTTL, 30*time.Minute)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
	if !cfg.Redis.Enabled() || cfg.Redis.MenuCacheTTL != time.Minute {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"unknown store driver", map[string]string{"STORE_DRIVER": "sqlite"}, true},
		{"unknown storage driver", map[string]string{"STORAGE_DRIVER": "ftp"}, true},
		{"s3 without bucket", map[string]string{"STORAGE_DRIVER": "s3", "S3_REGION": "us-east-1"}, true},
		{"s3 without region", map[string]string{"STORAGE_DRIVER": "s3", "S3_BUCKET": "menus"}, true},
		{"s3 complete", map[string]string{"STORAGE_DRIVER": "s3", "S3_BUCKET": "menus", "S3_REGION": "us-east-1"}, false},
		{"zero upload size", map[string]string{"MAX_UPLOAD_SIZE": "0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSMTPConfig_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		cfg      SMTPConfig
		expected bool
	}{
		{"host and from", SMTPConfig{Host: "smtp.example.com", From: "menus@example.com"}, true},
		{"host only", SMTPConfig{Host: "smtp.example.com"}, false},
		{"neither", SMTPConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.expected {
				t.Errorf("Enabled() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	os.Setenv("TEST_INT", "not-a-number")
	defer os.Unsetenv("TEST_INT")

	result := getEnvInt("TEST_INT", 42)
	if result != 42 {
		t.Errorf("getEnvInt should return default for invalid value, got %d", result)
	}
}

func TestGetEnvDuration_InvalidValue(t *testing.T) {
	os.Setenv("TEST_DURATION", "invalid")
	defer os.Unsetenv("TEST_DURATION")

	result := getEnvDuration("TEST_DURATION", 5*time.Minute)
	if result != 5*time.Minute {
		t.Errorf("getEnvDuration should return default for invalid value, got %v", result)
	}
}

func TestGetEnvBool_InvalidValue(t *testing.T) {
	t.Setenv("TEST_BOOL", "maybe")

	if !getEnvBool("TEST_BOOL", true) {
		t.Error("getEnvBool should return default for invalid value")
	}
}
