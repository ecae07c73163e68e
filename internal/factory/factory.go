package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/karstgames/savepoint/internal/dependencies/clock"
	"github.com/karstgames/savepoint/internal/dependencies/random"
	"github.com/karstgames/savepoint/internal/services/account"
	"github.com/karstgames/savepoint/internal/services/password"
	"github.com/karstgames/savepoint/internal/services/token"
	"github.com/karstgames/savepoint/internal/storage"
	"github.com/karstgames/savepoint/internal/storage/memory"
	"github.com/karstgames/savepoint/internal/storage/postgres"
	redisstorage "github.com/karstgames/savepoint/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	PasswordService *password.Service
	TokenService    *token.Service
	AccountService  *account.Service
}

// Config holds configuration for the application factory
type Config struct {
	// TokenConfig holds token signing settings; Domain and Secret are
	// required
	TokenConfig token.Config
	// PasswordConfig holds hashing cost settings (optional)
	// If zero value, defaults to password.DefaultConfig()
	PasswordConfig password.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis", or
	// "postgres"). If empty, defaults to "memory".
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres DSN (required if StorageType is "postgres")
	DatabaseURL string
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		pgStore, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis', or 'postgres'")
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg.TokenConfig, cfg.PasswordConfig, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	clk clock.Clock,
	rnd random.Random,
	tokenCfg token.Config,
	passwordCfg password.Config,
	logger *slog.Logger,
) (*App, error) {
	tokens, err := token.New(tokenCfg, clk)
	if err != nil {
		return nil, err
	}
	passwords := password.New(passwordCfg)
	accounts := account.New(store, passwords, tokens, clk, rnd, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		PasswordService: passwords,
		TokenService:    tokens,
		AccountService:  accounts,
	}, nil
}
