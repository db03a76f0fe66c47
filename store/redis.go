package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "acct"
	updateMaxRetries = 4
)

// RedisConfig tunes the Redis-backed document store.
type RedisConfig struct {
	// KeyPrefix namespaces every key. Defaults to "acct".
	KeyPrefix string

	// UnverifiedTTL bounds how long an account that never completes
	// verification occupies its email. Zero keeps unverified documents
	// forever. Verified documents never expire.
	UnverifiedTTL time.Duration
}

// RedisStore keeps each account as a single JSON document plus a
// secondary email index key used for uniqueness and login lookup.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	config RedisConfig
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		config: cfg,
	}
}

func (s *RedisStore) idKey(id string) string {
	return s.prefix + ":id:" + id
}

func (s *RedisStore) emailKey(email string) string {
	return s.prefix + ":email:" + NormalizeEmail(email)
}

func (s *RedisStore) ttlFor(account *Account) time.Duration {
	if account.Verified || s.config.UnverifiedTTL <= 0 {
		return 0
	}
	return s.config.UnverifiedTTL
}

// Create persists a new account. The email index key is claimed with
// SETNX so two racing signups for one address cannot both succeed.
func (s *RedisStore) Create(ctx context.Context, account *Account) error {
	account.Email = NormalizeEmail(account.Email)
	account.Version = 1

	doc, err := json.Marshal(account)
	if err != nil {
		return err
	}

	ttl := s.ttlFor(account)
	claimed, err := s.redis.SetNX(ctx, s.emailKey(account.Email), account.ID, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !claimed {
		return ErrDuplicateEmail
	}

	if err := s.redis.Set(ctx, s.idKey(account.ID), doc, ttl).Err(); err != nil {
		// Release the claim so a retry of the same signup can succeed.
		_ = s.redis.Del(context.WithoutCancel(ctx), s.emailKey(account.Email)).Err()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// FindByEmail resolves the email index and loads the document.
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads an account document.
func (s *RedisStore) FindByID(ctx context.Context, id string) (*Account, error) {
	data, err := s.redis.Get(ctx, s.idKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	account := &Account{}
	if err := json.Unmarshal(data, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Save writes the document unconditionally and advances its version.
func (s *RedisStore) Save(ctx context.Context, account *Account) error {
	account.Version++

	doc, err := json.Marshal(account)
	if err != nil {
		return err
	}

	if err := s.writeWithTTLPolicy(ctx, s.redis, account, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Update runs fn against the current document under a WATCH and writes
// the result back in a transaction. A concurrent write in between voids
// the transaction and the read-modify-write is retried from scratch, so
// two racing rotations of the same refresh token cannot both observe a
// match.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Account) error) (*Account, error) {
	key := s.idKey(id)

	for i := 0; i < updateMaxRetries; i++ {
		var updated *Account

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			account := &Account{}
			if err := json.Unmarshal(data, account); err != nil {
				return err
			}

			if err := fn(account); err != nil {
				return err
			}
			account.Version++

			doc, err := json.Marshal(account)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				return s.writeWithTTLPolicy(ctx, pipe, account, doc)
			})
			if err != nil {
				return err
			}

			updated = account
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrNotFound
			}
			// Mutation-function rejections propagate unchanged; the
			// caller owns their taxonomy.
			return nil, err
		}
		return updated, nil
	}

	return nil, ErrConflict
}

// writeWithTTLPolicy sets the document and keeps the email index and
// expiry policy in line with the account's verification state. A
// document that just became verified loses its TTL along with its index
// key.
func (s *RedisStore) writeWithTTLPolicy(ctx context.Context, c redis.Cmdable, account *Account, doc []byte) error {
	ttl := s.ttlFor(account)
	if ttl > 0 {
		if err := c.Set(ctx, s.idKey(account.ID), doc, ttl).Err(); err != nil {
			return err
		}
		return c.Expire(ctx, s.emailKey(account.Email), ttl).Err()
	}

	if err := c.Set(ctx, s.idKey(account.ID), doc, 0).Err(); err != nil {
		return err
	}
	if err := c.Set(ctx, s.emailKey(account.Email), account.ID, 0).Err(); err != nil {
		return err
	}
	return nil
}
