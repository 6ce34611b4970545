package identity

import (
	"context"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/trainer-service/internal/config"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// Custom claim keys set by the administrator-issued registration flow. When
// present on a first-sight credential they determine the provisioned role and
// tenant.
const (
	claimRole   = "role"
	claimTenant = "tenant_id"
)

// VerifiedClaims is the output of successful credential verification.
type VerifiedClaims struct {
	ExternalSubjectID string
	Issuer            string
	Email             string
	Name              string
	Raw               map[string]any
}

// Verifier validates an externally issued bearer credential.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*VerifiedClaims, error)
}

// TokenVerifier checks signature, expiry, issuer, and audience of bearer
// tokens against the issuer's published key material.
type TokenVerifier struct {
	keys     *KeyCache
	issuer   string
	audience string
}

// NewTokenVerifier constructs the verifier.
func NewTokenVerifier(cfg config.IdentityConfig, keys *KeyCache) *TokenVerifier {
	return &TokenVerifier{
		keys:     keys,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Verify parses and validates the raw credential. Failure kinds are kept
// distinct: EXPIRED_CREDENTIAL for an otherwise valid but stale token,
// ISSUER_UNREACHABLE when key material cannot be fetched, INVALID_CREDENTIAL
// for everything else.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (*VerifiedClaims, error) {
	if raw == "" {
		return nil, apperrors.NewInvalidCredential("empty credential")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == apperrors.CodeIssuerUnreachable {
			return nil, domainErr
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewExpiredCredential()
		}
		return nil, apperrors.NewInvalidCredential("credential rejected")
	}
	if !token.Valid {
		return nil, apperrors.NewInvalidCredential("credential rejected")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, apperrors.NewInvalidCredential("credential missing subject")
	}
	issuer, _ := claims.GetIssuer()
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &VerifiedClaims{
		ExternalSubjectID: subject,
		Issuer:            issuer,
		Email:             email,
		Name:              name,
		Raw:               map[string]any(claims),
	}, nil
}
