package identity

import (
	"context"
	"errors"

	"github.com/spec-kit/trainer-service/internal/domain"
)

// ErrSubjectExists is returned by PrincipalStore.Create when the external
// subject id is already registered. The resolver treats it as losing a
// concurrent first-sight race and re-reads the winning row.
var ErrSubjectExists = errors.New("external subject already registered")

// PrincipalStore is the storage contract the resolver and bypass gate depend
// on. Missing rows are reported as pgx.ErrNoRows, matching the repository
// layer.
type PrincipalStore interface {
	GetByExternalSubject(ctx context.Context, subject string) (*domain.Principal, error)
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	Create(ctx context.Context, principal *domain.Principal) error
}

// StudentDirectory resolves the student record linked to a managed-subject
// principal, used when constructing the authorization context.
type StudentDirectory interface {
	GetByPrincipal(ctx context.Context, principalID string) (*domain.Student, error)
}

// SessionAuthenticator validates an opaque server-side session token and
// returns the owning principal id.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}
