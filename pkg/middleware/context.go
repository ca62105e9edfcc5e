package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/fern/pkg/context"
)

// HeaderClientInfo identifies the client SDK calling the admin endpoints.
const HeaderClientInfo = "X-Client-Info"

// Context seeds the request context with request-scoped values.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = appctx.SetRequestID(ctx, requestID)
			ctx = appctx.SetMethod(ctx, req.Method)
			ctx = appctx.SetRoute(ctx, req.URL.Path)
			ctx = appctx.SetRemoteIP(ctx, c.RealIP())
			if clientInfo := req.Header.Get(HeaderClientInfo); clientInfo != "" {
				ctx = appctx.SetClientInfo(ctx, clientInfo)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
