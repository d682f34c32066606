package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.AccessTTLRemember != 24*time.Hour {
		t.Fatalf("unexpected remember ttl %v", cfg.JWT.AccessTTLRemember)
	}
	if cfg.Refresh.TTL != 7*24*time.Hour || cfg.Refresh.TTLRemember != 30*24*time.Hour {
		t.Fatalf("unexpected refresh ttls %v / %v", cfg.Refresh.TTL, cfg.Refresh.TTLRemember)
	}
	if cfg.OTP.TTL != 10*time.Minute {
		t.Fatalf("unexpected otp ttl %v", cfg.OTP.TTL)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte("server:\n  addr: \":9999\"\njwt:\n  access_ttl: 5m\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "48h")
	t.Setenv("JWT_SECRET", "supersecretsupersecretsupersecret")
	t.Setenv("DATABASE_URL", "postgres://localhost/authgate")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// YAML wins over defaults
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("yaml addr not applied: %q", cfg.Server.Addr)
	}
	// env wins over YAML
	if cfg.JWT.AccessTTL != 30*time.Minute {
		t.Fatalf("env access ttl not applied: %v", cfg.JWT.AccessTTL)
	}
	if cfg.Refresh.TTL != 48*time.Hour {
		t.Fatalf("env refresh ttl not applied: %v", cfg.Refresh.TTL)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidate_RequiresSecret(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure without JWT secret")
	}

	cfg.JWT.Secret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for short secret")
	}
}

func TestCookieSecure(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.CookieSecure() {
		t.Fatal("dev default should be insecure cookies")
	}

	cfg.App.Env = "prod"
	if !cfg.CookieSecure() {
		t.Fatal("prod default should be secure cookies")
	}

	insecure := false
	cfg.Cookies.Secure = &insecure
	if cfg.CookieSecure() {
		t.Fatal("explicit setting must win")
	}
}
