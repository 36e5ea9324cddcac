package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"BotBourse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts handler panics into a 500 response instead of tearing
// down the server.
func Recover(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					if l != nil {
						l.Error("panic recovered",
							logger.Error(err),
							logger.String("method", c.Request().Method),
							logger.String("uri", c.Request().RequestURI),
							logger.String("stack", string(debug.Stack())),
						)
					}
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
