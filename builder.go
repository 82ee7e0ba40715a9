package authkit

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ravil-k/authkit/kv"
	"github.com/ravil-k/authkit/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Every dependency is explicit; there is no
// ambient global state, so isolated tests can inject a fake store.
type Builder struct {
	config Config
	redis  *redis.Client
	store  kv.Store
	logger *slog.Logger
	built  bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the engine's store. The
// caller owns the client lifetime.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies an arbitrary kv.Store, overriding WithRedis. Mainly
// for tests and non-Redis deployments.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithLogger supplies a structured logger. Without one the engine logs
// nothing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration, wires the stores and returns the
// Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := normalizeConfig(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("a redis client or kv store is required")
		}
		store = kv.NewRedisStore(b.redis)
	}
	if cfg.KeyPrefix != "" {
		store = kv.WithPrefix(store, cfg.KeyPrefix)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sessions := session.NewStore(store, session.Config{
		KeyPrefix: cfg.Session.KeyPrefix,
		TTL:       cfg.Session.TTL,
		Logger:    logger,
	})

	b.built = true
	return &Engine{
		config:   cfg,
		store:    store,
		otp:      newOTPStore(store, logger),
		limiter:  newOTPLimiter(store, cfg.OTP.RateLimit),
		sessions: sessions,
		logger:   logger,
	}, nil
}
