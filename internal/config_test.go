package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/lexis/internal/cache"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestAuthConfig_JWTModeRequiresSecret(t *testing.T) {
	cfg := AuthConfig{Mode: AuthModeJWT}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "jwt_secret is empty") {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("jwt mode with secret should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("jwt mode should be enabled")
	}
}

func TestAuthConfig_Authenticator(t *testing.T) {
	if a := (&AuthConfig{Mode: AuthModeDisabled}).Authenticator(); a != nil {
		t.Errorf("disabled mode authenticator = %T, want nil", a)
	}
	tok := (&AuthConfig{Mode: AuthModeToken, Token: "abc"}).Authenticator()
	if tok == nil || tok.Authenticate("abc") != nil || tok.Authenticate("abd") == nil {
		t.Error("token authenticator should accept only its token")
	}
	if a := (&AuthConfig{Mode: AuthModeJWT, JWTSecret: "k"}).Authenticator(); a == nil || a.Authenticate("not-a-jwt") == nil {
		t.Error("jwt authenticator should reject malformed tokens")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCacheConfig_ManagerOverridesProfile(t *testing.T) {
	c := CacheConfig{Profile: cache.ProfileProd, PersistToDisk: true, Dir: "/tmp/x", TTL: time.Minute}
	mc, err := c.Manager()
	if err != nil {
		t.Fatalf("Manager: %v", err)
	}
	if mc.MaxSize != cache.ProdConfig().MaxSize {
		t.Errorf("max size = %d, want prod default", mc.MaxSize)
	}
	if !mc.PersistToDisk || mc.Dir != "/tmp/x" || mc.TTL != time.Minute {
		t.Errorf("overrides not applied: %+v", mc)
	}

	if _, err := (&CacheConfig{Profile: "staging"}).Manager(); err == nil {
		t.Error("unknown profile should fail")
	}
}

func TestCacheConfig_RedisNeedsAddr(t *testing.T) {
	c := CacheConfig{Profile: cache.ProfileDev, PersistToDisk: true, Backend: cache.BackendRedis}
	if err := c.Validate(); err == nil {
		t.Fatal("redis backend without addr should fail")
	}
}
