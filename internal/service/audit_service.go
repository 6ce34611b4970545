package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/trainer-service/internal/events"
	"github.com/spec-kit/trainer-service/internal/observability"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// AuditService records security-relevant events. Cross-tenant denials are
// logged at error level: a repeated occurrence is either a defect in scoping
// or an active probe, and both need an operator's attention.
type AuditService struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, metrics: metrics, logger: logger}
}

// RegisterHandlers subscribes audit handlers on the dispatcher.
func (s *AuditService) RegisterHandlers() {
	s.dispatcher.Subscribe(events.EventAccessDenied, s.onAccessDenied)
	s.dispatcher.Subscribe(events.EventPrincipalProvisioned, s.onPrincipalLifecycle)
	s.dispatcher.Subscribe(events.EventPrincipalDeactivated, s.onPrincipalLifecycle)
}

func (s *AuditService) onAccessDenied(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AccessDeniedPayload)
	if !ok {
		return nil
	}
	s.metrics.RecordDenial(payload.Code)

	fields := []zap.Field{
		zap.String("code", payload.Code),
		zap.String("path", payload.Path),
		zap.String("method", payload.Method),
		zap.String("principal_id", event.PrincipalID),
	}
	if payload.Code == apperrors.CodeCrossTenantWrite {
		s.logger.Error("cross-tenant access denied", fields...)
	} else {
		s.logger.Warn("access denied", fields...)
	}
	return nil
}

func (s *AuditService) onPrincipalLifecycle(_ context.Context, event events.Event) error {
	s.logger.Info("principal lifecycle event",
		zap.String("type", string(event.Type)),
		zap.String("principal_id", event.PrincipalID),
	)
	return nil
}
