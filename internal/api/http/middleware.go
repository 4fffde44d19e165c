package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. The request logger runs
// outermost so it sees the status written by the error middleware.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

// NewErrorHandler renders errors raised outside the middleware chain, such
// as oversized bodies, in the same envelope.
func NewErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, logger, err)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				if metrics != nil {
					metrics.RecordError(c.Route().Path, c.Method(), apperrors.ToDomainError(err).Code)
				}
				_ = writeError(c, logger, err)
				err = nil
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	domainErr := apperrors.ToDomainError(err)
	response := fiber.Map{"error": fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}}
	if len(domainErr.Details) > 0 {
		response["error"].(fiber.Map)["details"] = domainErr.Details
	}
	if domainErr.HTTPStatus >= 500 {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(domainErr))
	}
	return c.Status(domainErr.HTTPStatus).JSON(response)
}
