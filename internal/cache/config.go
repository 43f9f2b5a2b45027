package cache

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Backend selects the persistent tier implementation.
type Backend string

// Persistent tier backends.
const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
)

// Profile names.
const (
	ProfileDev  = "dev"
	ProfileProd = "prod"
)

// Config controls the cache manager.
type Config struct {
	// EnableFileWatcher turns on content watching that clears the cache.
	EnableFileWatcher bool
	// UpdateInterval is the period of the background Clear. Zero disables it.
	UpdateInterval time.Duration
	// TTL is the default idle lifetime of an entry. Zero means never expire.
	TTL time.Duration
	// MaxSize bounds the number of entries kept in memory.
	MaxSize int
	// PersistToDisk enables the persistent tier.
	PersistToDisk bool
	// Version tags persisted entries; entries with another version are ignored.
	Version string
	// Dir is the file backend directory.
	Dir string
	// Backend selects the persistent tier.
	Backend Backend
}

// DevConfig returns the development profile.
func DevConfig() Config {
	return Config{
		EnableFileWatcher: true,
		UpdateInterval:    5 * time.Minute,
		TTL:               10 * time.Minute,
		MaxSize:           1000,
		Version:           "1",
		Dir:               ".cache/lexis",
		Backend:           BackendFile,
	}
}

// ProdConfig returns the production profile.
func ProdConfig() Config {
	return Config{
		MaxSize: 5000,
		Version: "1",
		Dir:     ".cache/lexis",
		Backend: BackendFile,
	}
}

// ProfileConfig returns the named profile.
func ProfileConfig(name string) (Config, error) {
	switch name {
	case ProfileDev, "":
		return DevConfig(), nil
	case ProfileProd:
		return ProdConfig(), nil
	default:
		return Config{}, fmt.Errorf("cache: unknown profile %q", name)
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxSize, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.UpdateInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Backend, validation.In(BackendFile, BackendRedis)),
		validation.Field(&c.Dir, validation.When(c.PersistToDisk && c.Backend == BackendFile, validation.Required)),
	)
}
