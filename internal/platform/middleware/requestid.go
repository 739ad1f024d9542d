package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is the header request ids travel in, both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that tags every request with an id. An id
// supplied by the caller is preserved so the UI can correlate its own logs;
// otherwise a fresh one is generated. The id lands in the request context
// under "request_id" and in the response header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
