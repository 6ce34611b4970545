package service

import (
	"context"
	"time"

	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/session"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// SessionService exchanges an authenticated request for a server-side
// session. The issued token is opaque; it never embeds claims.
type SessionService struct {
	store *session.Store
}

// IssuedSession is what the caller gets back.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// NewSessionService builds the service.
func NewSessionService(store *session.Store) *SessionService {
	return &SessionService{store: store}
}

// Issue mints a session for the caller. The caller already passed credential
// verification, so any active principal may trade a bearer credential for a
// session.
func (s *SessionService) Issue(ctx context.Context, ac identity.AuthContext) (*IssuedSession, error) {
	token, expiresAt, err := s.store.Issue(ctx, ac.PrincipalID())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &IssuedSession{Token: token, ExpiresAt: expiresAt}, nil
}

// Revoke invalidates a session token immediately.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if err := s.store.Revoke(ctx, token); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
