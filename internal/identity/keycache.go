package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/trainer-service/internal/config"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

const jwksSnapshotKey = "identity:jwks"

// A fresh set missing a token's kid may mean the issuer rotated keys mid-TTL.
// One refetch is attempted before rejecting, rate-floored so a stream of
// forged kids cannot drive traffic to the issuer.
const unknownKidRefetchFloor = 30 * time.Second

// KeyCache holds the issuer's public key material for a bounded TTL. Readers
// of a fresh set never block; refresh is serialized through a single writer.
// A Redis snapshot lets sibling processes warm from one fetch. Signature
// validity never depends on cache freshness beyond the key rotation window,
// so expired entries are simply refetched.
type KeyCache struct {
	jwksURL string
	ttl     time.Duration
	client  *http.Client
	redis   *redis.Client
	logger  *zap.Logger

	refetchFloor time.Duration

	mu        sync.RWMutex
	keys      *jose.JSONWebKeySet
	fetchedAt time.Time

	refreshMu sync.Mutex
}

// NewKeyCache constructs the cache. redisClient may be nil; the snapshot is
// then skipped and every process fetches independently.
func NewKeyCache(cfg config.IdentityConfig, redisClient *redis.Client, logger *zap.Logger) *KeyCache {
	return &KeyCache{
		jwksURL:      cfg.JWKSURL,
		ttl:          cfg.KeyCacheTTL(),
		client:       &http.Client{Timeout: cfg.FetchTimeout()},
		redis:        redisClient,
		logger:       logger,
		refetchFloor: unknownKidRefetchFloor,
	}
}

// Key returns the verification key material for the given key id, fetching
// the issuer's JWKS when the cached set is stale. A fetch failure surfaces as
// ISSUER_UNREACHABLE so callers can retry with backoff.
func (c *KeyCache) Key(ctx context.Context, kid string) (any, error) {
	c.mu.RLock()
	keys, fresh := c.keys, time.Since(c.fetchedAt) < c.ttl
	c.mu.RUnlock()

	if keys != nil && fresh {
		if key, ok := lookupKey(keys, kid); ok {
			return key, nil
		}
		if rotated := c.refreshForRotation(ctx); rotated != nil {
			if key, ok := lookupKey(rotated, kid); ok {
				return key, nil
			}
		}
		return nil, apperrors.NewInvalidCredential("unknown signing key")
	}

	keys, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := lookupKey(keys, kid); ok {
		return key, nil
	}
	return nil, apperrors.NewInvalidCredential("unknown signing key")
}

// refresh serializes fetches: concurrent stale readers wait for one writer
// instead of stampeding the issuer.
func (c *KeyCache) refresh(ctx context.Context) (*jose.JSONWebKeySet, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	keys, fresh := c.keys, time.Since(c.fetchedAt) < c.ttl
	c.mu.RUnlock()
	if keys != nil && fresh {
		return keys, nil
	}

	if set := c.loadSnapshot(ctx); set != nil {
		c.store(set)
		return set, nil
	}

	set, raw, err := c.fetch(ctx)
	if err != nil {
		return nil, apperrors.NewIssuerUnreachable(err)
	}
	c.saveSnapshot(ctx, raw)
	c.store(set)
	return set, nil
}

// refreshForRotation pulls the issuer's current set when a fresh cache lacks
// a token's kid. The snapshot is skipped because it is as old as the cache.
// Failure keeps the rejection path: the caller already holds fresh material.
func (c *KeyCache) refreshForRotation(ctx context.Context) *jose.JSONWebKeySet {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	keys, recent := c.keys, time.Since(c.fetchedAt) < c.refetchFloor
	c.mu.RUnlock()
	if keys != nil && recent {
		return keys
	}

	set, raw, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("jwks refetch for unknown signing key failed", zap.Error(err))
		return nil
	}
	c.saveSnapshot(ctx, raw)
	c.store(set)
	return set
}

func (c *KeyCache) fetch(ctx context.Context) (*jose.JSONWebKeySet, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("jwks fetch returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, err
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, nil, fmt.Errorf("parse jwks: %w", err)
	}
	return &set, raw, nil
}

func (c *KeyCache) store(set *jose.JSONWebKeySet) {
	c.mu.Lock()
	c.keys = set
	c.fetchedAt = time.Now()
	c.mu.Unlock()
}

func (c *KeyCache) loadSnapshot(ctx context.Context) *jose.JSONWebKeySet {
	if c.redis == nil {
		return nil
	}
	raw, err := c.redis.Get(ctx, jwksSnapshotKey).Bytes()
	if err != nil {
		return nil
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil
	}
	return &set
}

func (c *KeyCache) saveSnapshot(ctx context.Context, raw []byte) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, jwksSnapshotKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to snapshot jwks", zap.Error(err))
	}
}

func lookupKey(set *jose.JSONWebKeySet, kid string) (any, bool) {
	if kid == "" {
		if len(set.Keys) == 1 {
			return set.Keys[0].Key, true
		}
		return nil, false
	}
	matches := set.Key(kid)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0].Key, true
}
