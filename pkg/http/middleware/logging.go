package middleware

import (
	"time"

	"BotBourse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging emits one structured access-log line per request.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			if l != nil {
				req := c.Request()
				l.Info("http request",
					logger.String("method", req.Method),
					logger.String("uri", req.RequestURI),
					logger.String("remote", c.RealIP()),
					logger.Int("status", c.Response().Status),
					logger.Int64("bytes", c.Response().Size),
					logger.Duration("latency_ms", time.Since(start)),
				)
			}

			return err
		}
	}
}
