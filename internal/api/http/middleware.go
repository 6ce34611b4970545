package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/trainer-service/internal/events"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/observability"
	apperrors "github.com/spec-kit/trainer-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, dispatcher events.Dispatcher, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, dispatcher))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// denialCodes marks the error kinds that feed the access audit trail.
var denialCodes = map[string]struct{}{
	apperrors.CodeInvalidCredential:  {},
	apperrors.CodeExpiredCredential:  {},
	apperrors.CodePrincipalInactive:  {},
	apperrors.CodeProvisioningDenied: {},
	apperrors.CodeCrossTenantWrite:   {},
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, dispatcher events.Dispatcher) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				if dispatcher != nil {
					if _, denial := denialCodes[domainErr.Code]; denial {
						principalID := ""
						if ac, ok := identity.ContextFromFiber(c); ok {
							principalID = ac.PrincipalID()
						}
						_ = dispatcher.Publish(c.UserContext(), events.Event{
							Type:        events.EventAccessDenied,
							PrincipalID: principalID,
							Timestamp:   time.Now(),
							Payload: events.AccessDeniedPayload{
								Code:   domainErr.Code,
								Path:   c.Path(),
								Method: c.Method(),
							},
						})
					}
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}
