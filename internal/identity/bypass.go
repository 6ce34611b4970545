package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/trainer-service/internal/config"
	"github.com/spec-kit/trainer-service/internal/domain"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// BypassTokenPrefix marks bearer tokens handled by the development bypass
// gate instead of the credential verifier.
const BypassTokenPrefix = "dev-bypass-"

// Well-known external subject ids for bypass principals.
const (
	bypassAdminSubject   = "dev-bypass-admin"
	bypassTrainerSubject = "dev-bypass-trainer"
)

// BypassGate synthesizes principals without credential verification. It can
// only be constructed outside production posture; in production the
// middleware holds no gate and the code path does not exist.
type BypassGate struct {
	principals PrincipalStore
	logger     *zap.Logger
}

// NewBypassGate constructs the gate. Construction fails hard when the process
// runs in production posture; this is a precondition, not a per-request check.
func NewBypassGate(cfg config.AppConfig, principals PrincipalStore, logger *zap.Logger) (*BypassGate, error) {
	if cfg.IsProduction() {
		return nil, fmt.Errorf("development bypass gate cannot be constructed in production posture")
	}
	return &BypassGate{principals: principals, logger: logger}, nil
}

// ParseBypassToken maps a bypass bearer token to the requested role.
func ParseBypassToken(token string) (domain.Role, bool) {
	switch token {
	case bypassAdminSubject:
		return domain.RoleAdmin, true
	case bypassTrainerSubject:
		return domain.RoleTrainer, true
	}
	return "", false
}

// Bypass returns the well-known principal for the requested role, creating it
// on first use. Every invocation emits a warning so operators can spot a
// deployment accidentally running off-production configuration.
func (g *BypassGate) Bypass(ctx context.Context, role domain.Role) (*domain.Principal, error) {
	g.logger.Warn("development bypass gate invoked", zap.String("role", string(role)))

	var subject string
	switch role {
	case domain.RoleAdmin:
		subject = bypassAdminSubject
	case domain.RoleTrainer:
		subject = bypassTrainerSubject
	default:
		return nil, apperrors.NewUnauthorized("bypass role not supported")
	}

	principal, err := g.principals.GetByExternalSubject(ctx, subject)
	if err == nil {
		return principal, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	created := &domain.Principal{
		ExternalSubjectID: subject,
		Name:              subject,
		Role:              role,
		Active:            true,
	}
	if createErr := g.principals.Create(ctx, created); createErr != nil {
		if errors.Is(createErr, ErrSubjectExists) {
			return g.principals.GetByExternalSubject(ctx, subject)
		}
		return nil, apperrors.MapError(createErr)
	}
	return created, nil
}
