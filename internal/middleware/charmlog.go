package middleware

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// CharmLog logs each request on the control socket at debug level, and
// failures at error level.
func CharmLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency", time.Since(start),
			}
			if err != nil || res.Status >= 500 {
				log.Error("ipc request", append(fields, "err", err)...)
			} else {
				log.Debug("ipc request", fields...)
			}
			return nil
		}
	}
}
