package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/trainer-service/internal/config"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

const keyPrefix = "session:"

// Store keeps server-side sessions in Redis. Clients hold an opaque
// "id.secret" token; only a hash of the secret is stored, and entries expire
// with the configured TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	cost   int
}

type record struct {
	PrincipalID string `json:"principal_id"`
	SecretHash  string `json:"secret_hash"`
}

// NewStore constructs the session store.
func NewStore(client *redis.Client, cfg config.AuthConfig) *Store {
	return &Store{client: client, ttl: cfg.SessionTTL(), cost: cfg.BcryptCost}
}

// Issue creates a session for the principal and returns the opaque token.
func (s *Store) Issue(ctx context.Context, principalID string) (string, time.Time, error) {
	id := uuid.NewString()
	secret := uuid.NewString()

	hash, err := hashSecret(secret, s.cost)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	payload, err := json.Marshal(record{PrincipalID: principalID, SecretHash: hash})
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	return id + "." + secret, time.Now().Add(s.ttl), nil
}

// Authenticate validates a session token and returns the owning principal id.
func (s *Store) Authenticate(ctx context.Context, token string) (string, error) {
	rec, _, err := s.lookup(ctx, token)
	if err != nil {
		return "", err
	}
	return rec.PrincipalID, nil
}

// Revoke deletes a session after validating the presented token.
func (s *Store) Revoke(ctx context.Context, token string) error {
	_, id, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, keyPrefix+id).Err()
}

func (s *Store) lookup(ctx context.Context, token string) (*record, string, error) {
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return nil, "", apperrors.NewUnauthorized("malformed session token")
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, "", apperrors.NewUnauthorized("session not found or expired")
		}
		return nil, "", apperrors.MapError(err)
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, "", apperrors.MapError(err)
	}
	if err := compareSecret(rec.SecretHash, secret); err != nil {
		return nil, "", apperrors.NewUnauthorized("invalid session token")
	}
	return &rec, id, nil
}
