package identity

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trainer-service/internal/domain"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// RequireRole restricts a route to the given roles. Fine-grained record-level
// decisions stay with the tenancy enforcer; this only gates whole surfaces
// (e.g. payments are a trainer concern).
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		ac, ok := ContextFromFiber(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[ac.Role()]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a context was established by the middleware.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ContextFromFiber(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
