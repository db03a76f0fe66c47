package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ethrane/authcore/jwt"
	"github.com/ethrane/authcore/mailer"
	"github.com/ethrane/authcore/password"
	"github.com/ethrane/authcore/store"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, and discard it; a Builder is not safe for concurrent use.
type Builder struct {
	config Config

	redis    *redis.Client
	accounts store.Store
	mail     mailer.Sender

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default account
// store. Ignored when WithStore provides a store directly.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies an account store, overriding the Redis-backed
// default. Useful for alternative backends and for tests.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.accounts = s
	return b
}

// WithMailer supplies the outbound message transport.
func (b *Builder) WithMailer(sender mailer.Sender) *Builder {
	b.mail = sender
	return b
}

// WithAuditSink supplies the audit event consumer. Without one, audit
// events are discarded.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process flow counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the components, and returns
// a ready Engine. Build can be called once per Builder.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if b.mail == nil {
		return nil, errors.New("mailer required")
	}

	// -------- ACCOUNT STORE --------
	accounts := b.accounts
	if accounts == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or account store required")
		}
		accounts = store.NewRedisStore(b.redis, store.RedisConfig{
			KeyPrefix:     cfg.Account.KeyPrefix,
			UnverifiedTTL: cfg.Account.UnverifiedTTL,
		})
	}

	// -------- VERIFICATION POLICY --------
	policy, err := newVerificationPolicy(cfg.Verification)
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	// -------- TOKEN ISSUER --------
	manager, err := jwt.NewManager(jwt.Config{
		AccessTTL:        cfg.JWT.AccessTTL,
		RefreshTTL:       cfg.JWT.RefreshTTL,
		SigningMethod:    jwt.SigningMethod(cfg.JWT.SigningMethod),
		AccessKey:        cloneBytes(cfg.JWT.AccessKey),
		RefreshKey:       cloneBytes(cfg.JWT.RefreshKey),
		AccessPublicKey:  cloneBytes(cfg.JWT.AccessPublicKey),
		RefreshPublicKey: cloneBytes(cfg.JWT.RefreshPublicKey),
		Issuer:           cfg.JWT.Issuer,
		Leeway:           cfg.JWT.Leeway,
		MaxFutureIAT:     cfg.JWT.MaxFutureIAT,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		accounts:     accounts,
		mail:         b.mail,
		policy:       policy,
		passwordHash: hasher,
		jwtManager:   manager,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessKey = cloneBytes(cfg.JWT.AccessKey)
	out.JWT.RefreshKey = cloneBytes(cfg.JWT.RefreshKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
