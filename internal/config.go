package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/pathres"
	"github.com/starford/lexis/internal/priority"
	"github.com/starford/lexis/internal/resolver"
	"github.com/starford/lexis/internal/tree"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeJWT      = "jwt"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Content  ContentConfig     `yaml:"content"`
	Cache    CacheConfig       `yaml:"cache"`
	Resolver resolver.Config   `yaml:"resolver"`
	Priority priority.Config   `yaml:"priority"`
	Stats    StatsConfig       `yaml:"stats"`
	Auth     AuthConfig        `yaml:"auth"`
	Errors   ErrorsConfig      `yaml:"errors"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if err := c.Stats.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig locates the documentation sources.
type ContentConfig struct {
	Root           string          `yaml:"root"`
	BasePath       string          `yaml:"base_path"`
	DefaultDocType string          `yaml:"default_doc_type"`
	Aliases        []pathres.Alias `yaml:"aliases"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// RedisConfig addresses the Redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig selects a cache profile and its persistent tier. Non-zero
// overrides replace the profile values.
type CacheConfig struct {
	Profile       string        `yaml:"profile"`
	PersistToDisk bool          `yaml:"persist_to_disk"`
	Backend       cache.Backend `yaml:"backend"`
	Dir           string        `yaml:"dir"`
	Version       string        `yaml:"version"`
	TTL           time.Duration `yaml:"ttl"`
	MaxSize       int           `yaml:"max_size"`
	Redis         RedisConfig   `yaml:"redis"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Profile, validation.In(cache.ProfileDev, cache.ProfileProd)),
		validation.Field(&c.Backend, validation.In(cache.BackendFile, cache.BackendRedis)),
		validation.Field(&c.MaxSize, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if c.PersistToDisk && c.Backend == cache.BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("cache: backend is %q but redis.addr is empty", cache.BackendRedis)
	}
	return nil
}

// Manager returns the effective cache manager configuration.
func (c *CacheConfig) Manager() (cache.Config, error) {
	mc, err := cache.ProfileConfig(c.Profile)
	if err != nil {
		return cache.Config{}, err
	}
	mc.PersistToDisk = c.PersistToDisk
	if c.Backend != "" {
		mc.Backend = c.Backend
	}
	if c.Dir != "" {
		mc.Dir = c.Dir
	}
	if c.Version != "" {
		mc.Version = c.Version
	}
	if c.TTL > 0 {
		mc.TTL = c.TTL
	}
	if c.MaxSize > 0 {
		mc.MaxSize = c.MaxSize
	}
	return mc, nil
}

// StatsConfig holds the keyword statistics database configuration.
type StatsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the stats configuration.
func (c *StatsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.When(c.Enabled, validation.Required)),
	)
}

// AuthConfig decides whether a request is authenticated, which controls the
// visibility of draft and private documents.
//
// Mode controls how authentication is checked:
//   - "disabled" (default): every request is anonymous.
//   - "token": a Bearer token equal to Token authenticates.
//   - "jwt": a Bearer HS256 JWT signed with JWTSecret authenticates.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken, AuthModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	if c.Mode == AuthModeJWT && c.JWTSecret == "" {
		return fmt.Errorf("auth: mode is %q but jwt_secret is empty", AuthModeJWT)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken || c.Mode == AuthModeJWT
}

// ErrorsConfig sizes the error reporter.
type ErrorsConfig struct {
	Capacity int `yaml:"capacity"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Root:           "./content",
			BasePath:       "/",
			DefaultDocType: tree.DefaultDocType,
		},
		Cache: CacheConfig{
			Profile: cache.ProfileDev,
			Backend: cache.BackendFile,
			Dir:     ".cache/lexis",
		},
		Resolver: resolver.DefaultConfig(),
		Priority: priority.DefaultConfig(),
		Stats: StatsConfig{
			Enabled:    true,
			SQLitePath: "./lexis.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Errors: ErrorsConfig{
			Capacity: 100,
		},
	}
}
