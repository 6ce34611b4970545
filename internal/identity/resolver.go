package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/trainer-service/internal/domain"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// Resolver maps verified claims to the internal principal record, creating it
// on first sight when policy allows.
type Resolver struct {
	principals    PrincipalStore
	autoProvision bool
	logger        *zap.Logger
}

// NewResolver constructs the resolver. autoProvision gates first-sight
// principal creation.
func NewResolver(principals PrincipalStore, autoProvision bool, logger *zap.Logger) *Resolver {
	return &Resolver{principals: principals, autoProvision: autoProvision, logger: logger}
}

// Resolve returns the principal for the verified subject. An existing
// principal is returned unchanged; resolution never mutates role or tenant
// affiliation. A deactivated principal fails PRINCIPAL_INACTIVE regardless of
// credential validity.
func (r *Resolver) Resolve(ctx context.Context, claims *VerifiedClaims) (*domain.Principal, error) {
	principal, err := r.principals.GetByExternalSubject(ctx, claims.ExternalSubjectID)
	switch {
	case err == nil:
		if !principal.Active {
			return nil, apperrors.NewPrincipalInactive()
		}
		return principal, nil
	case errors.Is(err, pgx.ErrNoRows):
		return r.provision(ctx, claims)
	default:
		return nil, apperrors.MapError(err)
	}
}

func (r *Resolver) provision(ctx context.Context, claims *VerifiedClaims) (*domain.Principal, error) {
	if !r.autoProvision {
		return nil, apperrors.NewProvisioningDenied()
	}

	principal := &domain.Principal{
		ExternalSubjectID: claims.ExternalSubjectID,
		Email:             claims.Email,
		Name:              claims.Name,
		Role:              domain.RoleStudent,
		Active:            true,
	}

	// An administrator-issued registration flow stamps role and tenant on the
	// credential itself.
	if role, ok := claims.Raw[claimRole].(string); ok && domain.Role(role).Valid() {
		principal.Role = domain.Role(role)
		if tenant, ok := claims.Raw[claimTenant].(string); ok && tenant != "" {
			principal.TenantID = &tenant
		}
	}

	if err := r.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, ErrSubjectExists) {
			// Lost a concurrent first-sight race; the winning row is
			// authoritative.
			winner, readErr := r.principals.GetByExternalSubject(ctx, claims.ExternalSubjectID)
			if readErr != nil {
				return nil, apperrors.MapError(readErr)
			}
			if !winner.Active {
				return nil, apperrors.NewPrincipalInactive()
			}
			return winner, nil
		}
		return nil, apperrors.MapError(err)
	}

	r.logger.Info("principal provisioned",
		zap.String("principal_id", principal.ID),
		zap.String("role", string(principal.Role)),
	)
	return principal, nil
}
