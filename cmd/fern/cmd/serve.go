package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the auto-link HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (overrides PORT)")

	return cmd
}

func serve(ctx context.Context) error {
	if err := matching.ValidateThreshold(cfg.MatchThreshold); err != nil {
		return fmt.Errorf("MATCH_THRESHOLD: %w", err)
	}

	a := newApp(cfg, logger)
	if cfg.DatabaseMigrateOnStart {
		a.addMigrations()
	}
	if err := a.start(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer a.stop(context.WithoutCancel(ctx))

	routerCfg := routes.RouterConfig{
		ServiceName:  cfg.AppName,
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: cfg.AllowHeaders,
		RequiredRole: cfg.AutoLinkRequiredRole,
	}
	if cfg.AuthEnabled {
		verifier, err := middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return err
		}
		routerCfg.Verifier = verifier
	}

	checker := health.NewChecker(cfg.Version, a.healthChecks())
	e := routes.NewRouter(routerCfg, logger, a.orchestrator(), checker)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Infof("%s listening on %s", cfg.AppName, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	checker.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
