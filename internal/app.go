package internal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/starford/lexis/internal/api"
	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/docservice"
	"github.com/starford/lexis/internal/keyword"
	"github.com/starford/lexis/internal/pathres"
	"github.com/starford/lexis/internal/priority"
	"github.com/starford/lexis/internal/resolver"
	"github.com/starford/lexis/internal/stats"
	"github.com/starford/lexis/internal/storage"
	"github.com/starford/lexis/internal/tree"
)

// App holds the wired components shared by the server, CLI and MCP entry points.
type App struct {
	Config   *Config
	Logger   *slog.Logger
	Store    storage.Provider
	Cache    *cache.Manager
	Stats    *stats.DB
	Reporter *apperr.Reporter
	Service  *docservice.Service
}

// NewApp builds every component from cfg. The caller must Close the App.
func NewApp(cfg *Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.EnsureFS(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	reporter := apperr.NewReporter(cfg.Errors.Capacity, logger)

	cm, err := newCache(cfg.Cache, reporter, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Cache:    cm,
		Reporter: reporter,
	}

	if cfg.Stats.Enabled {
		db, err := stats.Open(cfg.Stats.SQLitePath)
		if err != nil {
			_ = cm.Close()
			return nil, fmt.Errorf("init stats: %w", err)
		}
		a.Stats = db
	}

	trees := tree.NewBuilder(store,
		tree.WithCache(cm),
		tree.WithReporter(reporter),
		tree.WithLogger(logger),
		tree.WithDefaultDocType(cfg.Content.DefaultDocType))
	indexer := keyword.NewIndexer(trees, cm)

	ropts := []resolver.Option{
		resolver.WithPriority(priority.New(cfg.Priority)),
		resolver.WithPaths(pathres.NewAliasResolver(cfg.Content.Aliases), pathres.NewPathResolver(cfg.Content.BasePath)),
		resolver.WithReporter(reporter),
		resolver.WithLogger(logger),
	}
	if a.Stats != nil {
		ropts = append(ropts, resolver.WithRecorder(a.Stats))
	}

	a.Service = docservice.NewService(docservice.Deps{
		Store:    store,
		Trees:    trees,
		Indexer:  indexer,
		Resolver: resolver.New(cfg.Resolver, indexer, ropts...),
		Cache:    cm,
		Stats:    a.Stats,
		Reporter: reporter,
		Logger:   logger,
	})
	return a, nil
}

func newCache(cfg CacheConfig, reporter *apperr.Reporter, logger *slog.Logger) (*cache.Manager, error) {
	mc, err := cfg.Manager()
	if err != nil {
		return nil, err
	}
	opts := []cache.Option{cache.WithReporter(reporter), cache.WithLogger(logger)}
	if mc.PersistToDisk {
		switch mc.Backend {
		case cache.BackendRedis:
			client := redis.NewUniversalClient(&redis.UniversalOptions{
				Addrs:    []string{cfg.Redis.Addr},
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			opts = append(opts, cache.WithStore(cache.NewRedisStore(client, cache.DefaultRedisPrefix)))
		default:
			fs, err := cache.NewFileStore(mc.Dir)
			if err != nil {
				return nil, err
			}
			opts = append(opts, cache.WithStore(fs))
		}
	}
	return cache.New(mc, opts...)
}

// Authenticator returns the request authenticator for the configured mode, or
// nil when authentication is disabled.
func (c *AuthConfig) Authenticator() api.Authenticator {
	switch c.Mode {
	case AuthModeToken:
		return api.TokenAuth{Token: c.Token}
	case AuthModeJWT:
		return api.JWTAuth{Secret: []byte(c.JWTSecret)}
	default:
		return nil
	}
}

// Close releases the cache and statistics database.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Stats != nil {
		errs = append(errs, a.Stats.Close())
	}
	return errors.Join(errs...)
}
