package middleware

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
)

// RequireRole rejects callers whose verified roles do not include role.
// It must run after Authentication.
func RequireRole(logger ectologger.Logger, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			ctx := c.Request().Context()
			if !appctx.HasRole(ctx, role) {
				logger.WithContext(ctx).WithFields(map[string]any{
					"user_id":       appctx.GetUserID(ctx),
					"required_role": role,
				}).Warn("caller lacks required role")
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
