package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FOCUS_JWT_SECRET", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("expected secret from env, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.AccessTokenTTL != 24*time.Hour || cfg.JWT.RememberMeTTL != 30*24*time.Hour {
		t.Fatalf("unexpected access ttls %s/%s", cfg.JWT.AccessTokenTTL, cfg.JWT.RememberMeTTL)
	}
	if cfg.Lockout.Threshold != 5 || cfg.Lockout.Duration != 30*time.Minute {
		t.Fatalf("unexpected lockout %+v", cfg.Lockout)
	}
	if cfg.Sessions.Keep != 5 {
		t.Fatalf("expected keep 5, got %d", cfg.Sessions.Keep)
	}
	if cfg.RateLimit.LoginMaxAttempts <= cfg.Lockout.Threshold {
		t.Fatalf("login limit %d must exceed lockout threshold %d", cfg.RateLimit.LoginMaxAttempts, cfg.Lockout.Threshold)
	}
	if cfg.Security.BcryptCost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cfg.Security.BcryptCost)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadUnprefixedEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "plain")
	t.Setenv("LOCKOUT_THRESHOLD", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "plain" || cfg.Lockout.Threshold != 3 {
		t.Fatalf("unexpected config %+v %+v", cfg.JWT, cfg.Lockout)
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.JWT.Secret = "  "

	if err := cfg.Validate(); !errors.Is(err, ErrJWTSecretMissing) {
		t.Fatalf("expected ErrJWTSecretMissing, got %v", err)
	}
}

func TestValidateRedisBackendNeedsHost(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.JWT.Secret = "secret"
	cfg.RateLimit.Backend = RateLimitBackendRedis
	cfg.Redis.Host = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis backend without host")
	}
}

func TestValidateRejectsLoginLimitAtLockoutThreshold(t *testing.T) {
	t.Setenv("FOCUS_JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.RateLimit.LoginMaxAttempts = cfg.Lockout.Threshold

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when the login limit does not exceed the lockout threshold")
	}

	cfg.RateLimit.LoginMaxAttempts = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled login limit should validate, got %v", err)
	}
}
