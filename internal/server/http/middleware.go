package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/logger"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

func requestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	})
}

// requestLogger scopes a logger to the request and writes one access line per call.
func requestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			id := c.Response().Header().Get(echo.HeaderXRequestID)

			scoped := base.With(zap.String("request_id", id))
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), scoped)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			switch {
			case status >= http.StatusInternalServerError:
				scoped.Error("http request", fields...)
			case status >= http.StatusBadRequest:
				scoped.Warn("http request", fields...)
			default:
				scoped.Info("http request", fields...)
			}
			return nil
		}
	}
}

func recoverer(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered", zap.Any("panic", r), zap.Stack("stack"))
					err = errorbank.Internal("internal server error", errorbank.WithCause(fmt.Errorf("panic: %v", r)))
				}
			}()
			return next(c)
		}
	}
}

// errorHandler renders anything a handler returns, including Echo's own
// routing errors, in the shared error envelope.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := 0
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			err = fromHTTPError(he)
		}

		appErr := errorbank.From(err)
		if appErr.Kind() == errorbank.KindInternal {
			logger.Error("http request failed", zap.Error(appErr.Cause()), zap.String("message", appErr.Message()))
		}
		if rerr := response.New(c).WithStatus(status).WithError(appErr).Build(); rerr != nil {
			logger.Warn("failed to write error response", zap.Error(rerr))
		}
	}
}

func fromHTTPError(he *echo.HTTPError) *errorbank.AppError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}
	switch {
	case he.Code == http.StatusNotFound:
		return errorbank.NotFound(msg)
	case he.Code == http.StatusConflict:
		return errorbank.Conflict(msg)
	case he.Code == http.StatusUnprocessableEntity:
		return errorbank.Unprocessable(msg)
	case he.Code >= http.StatusInternalServerError:
		return errorbank.Internal(msg, errorbank.WithCause(he))
	default:
		return errorbank.BadRequest(msg)
	}
}
