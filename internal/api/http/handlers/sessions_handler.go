package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/api/dto"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/service"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// SessionsHandler exchanges verified credentials for opaque sessions.
type SessionsHandler struct {
	service *service.SessionService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(sessionService *service.SessionService) *SessionsHandler {
	return &SessionsHandler{service: sessionService}
}

// Create POST /sessions. The request is already authenticated; the session
// inherits the caller's principal.
func (h *SessionsHandler) Create(c *fiber.Ctx) error {
	ac, ok := identity.ContextFromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	issued, err := h.service.Issue(c.UserContext(), ac)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}})
}

// Revoke DELETE /sessions. Invalidates the session presented on the request.
func (h *SessionsHandler) Revoke(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Session") {
		return apperrors.NewValidationError("session token required", nil)
	}
	if err := h.service.Revoke(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
