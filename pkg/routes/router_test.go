package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

type stubRunner struct {
	calls int
}

func (s *stubRunner) Run(_ context.Context, opts linking.Options) (*linking.BatchReport, error) {
	s.calls++
	return linking.NewBatchReport(nil, opts.DryRun, 0.85), nil
}

type staticVerifier map[string]*middleware.UserClaims

func (v staticVerifier) Verify(_ context.Context, rawToken string) (*middleware.UserClaims, error) {
	if c, ok := v[rawToken]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func withRoles(roles ...string) *middleware.UserClaims {
	c := &middleware.UserClaims{Sub: "u1"}
	c.RealmAccess.Roles = roles
	return c
}

func newTestRouter(verifier middleware.TokenVerifier) (*echo.Echo, *stubRunner) {
	runner := &stubRunner{}
	e := NewRouter(RouterConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
		Verifier:     verifier,
		RequiredRole: "admin",
	}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), runner, health.NewChecker("test", nil))
	return e, runner
}

func TestRouter_Preflight(t *testing.T) {
	e, runner := newTestRouter(staticVerifier{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/autolink", nil)
	req.Header.Set(echo.HeaderOrigin, "https://admin.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(echo.HeaderAccessControlRequestHeaders, "authorization, content-type")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), "x-client-info")
	assert.Zero(t, runner.calls)
}

func TestRouter_AdminGuard(t *testing.T) {
	e, runner := newTestRouter(staticVerifier{
		"admin-token":  withRoles("admin"),
		"viewer-token": withRoles("viewer"),
	})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "bad token", token: "nope", want: http.StatusUnauthorized},
		{name: "missing role", token: "viewer-token", want: http.StatusForbidden},
		{name: "admin", token: "admin-token", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/autolink", strings.NewReader(`{"dry_run":true}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, 1, runner.calls)
}

func TestRouter_OpenWithoutVerifier(t *testing.T) {
	e, runner := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/autolink", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
}

func TestRouter_Metrics(t *testing.T) {
	e, _ := newTestRouter(nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
