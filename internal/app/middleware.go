package app

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toyz/trellis/pkg/trellis"
)

// Context keys set by the middleware in this package.
const (
	RequestIDKey    = "request_id"
	RequestStartKey = "request_start"
	UserIDKey       = "user_id"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Middleware names as they appear in annotations.
const (
	RequestIDMiddleware = "RequestID"
	JSONBodyMiddleware  = "JSONBody"
	AuthMiddleware      = "Auth"
	AccessLogEndware    = "AccessLog"
)

// RequestID tags every request with an ID, reusing the client's when it
// sent a valid UUID.
func RequestID(next trellis.HandlerFunc) trellis.HandlerFunc {
	return func(c trellis.RequestContext) error {
		id := c.Request().Header(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Set(RequestStartKey, time.Now())
		c.Response().SetHeader(RequestIDHeader, id)
		return next(c)
	}
}

// JSONBody rejects requests that do not carry a JSON object body.
func JSONBody(next trellis.HandlerFunc) trellis.HandlerFunc {
	return func(c trellis.RequestContext) error {
		mediaType, _, err := mime.ParseMediaType(c.Request().ContentType())
		if err != nil || mediaType != "application/json" {
			return trellis.NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		}

		var body map[string]json.RawMessage
		if err := json.Unmarshal(c.Request().Body(), &body); err != nil {
			return trellis.NewHTTPError(http.StatusBadRequest, "Request body must be a JSON object", err)
		}
		return next(c)
	}
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores
// the user ID under UserIDKey.
func Auth(tokens *Tokens) trellis.MiddlewareFunc {
	return func(next trellis.HandlerFunc) trellis.HandlerFunc {
		return func(c trellis.RequestContext) error {
			header := c.Request().Header("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return trellis.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			id, err := tokens.Verify(token)
			if err != nil {
				return trellis.NewHTTPError(http.StatusUnauthorized, "Unauthorized", err)
			}

			c.Set(UserIDKey, id)
			return next(c)
		}
	}
}

// AccessLog is an endware logging every successfully handled request.
func AccessLog(logger *slog.Logger) trellis.MiddlewareFunc {
	return func(next trellis.HandlerFunc) trellis.HandlerFunc {
		return func(c trellis.RequestContext) error {
			attrs := []any{
				"method", c.Method(),
				"path", c.Path(),
				"status", c.Response().Status(),
				"ip", c.RealIP(),
			}
			if id, ok := c.Get(RequestIDKey).(string); ok {
				attrs = append(attrs, "request_id", id)
			}
			if start, ok := c.Get(RequestStartKey).(time.Time); ok {
				attrs = append(attrs, "duration", time.Since(start))
			}

			logger.InfoContext(c.Context(), "request", attrs...)
			return next(c)
		}
	}
}

// RegisterMiddleware adds the named middleware of the application to reg.
func RegisterMiddleware(reg trellis.MiddlewareRegistry, tokens *Tokens, logger *slog.Logger) error {
	named := []struct {
		name string
		fn   trellis.MiddlewareFunc
	}{
		{RequestIDMiddleware, RequestID},
		{JSONBodyMiddleware, JSONBody},
		{AuthMiddleware, Auth(tokens)},
		{AccessLogEndware, AccessLog(logger)},
	}
	for _, m := range named {
		if err := reg.Register(m.name, m.fn); err != nil {
			return err
		}
	}
	return nil
}
