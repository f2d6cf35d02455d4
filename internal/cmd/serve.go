package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/signrelay/signrelay/internal/config"
	"github.com/signrelay/signrelay/internal/document"
	"github.com/signrelay/signrelay/internal/observability"
	"github.com/signrelay/signrelay/internal/server"
	"github.com/signrelay/signrelay/internal/server/handlers"
	"github.com/signrelay/signrelay/internal/signing"
	"github.com/signrelay/signrelay/pkg/jobstore"
	"github.com/signrelay/signrelay/pkg/provider"
	"github.com/signrelay/signrelay/pkg/provider/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signing proxy HTTP server",
	Long: `Start the HTTP server: accepts PDF uploads on POST /api/sign,
forwards them to the signing provider, and serves status polls and signed
document downloads until the process is signalled to stop.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	overrides := map[string]any{}
	if cmd.Flags().Changed("host") {
		overrides["server.host"] = serveHost
	}
	if cmd.Flags().Changed("port") {
		overrides["server.port"] = servePort
	}

	cfg, err := config.Load(ctx, overrides)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to load configuration", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	if err := observability.InitServerLogger(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to initialize logger", err)
	}
	defer observability.Sync()
	logger := observability.ServerLogger

	providerCfg := rest.Config{
		BaseURL:            cfg.Provider.BaseURL,
		APIKey:             cfg.Provider.APIKey,
		SignatureProfileID: cfg.Provider.SignatureProfileID,
		UserID:             cfg.Provider.UserID,
		Timeout:            cfg.Provider.Timeout,
	}
	providerClient, err := rest.New(providerCfg)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid provider configuration", err)
	}

	store := jobstore.New(cfg.Jobs.TTL,
		jobstore.WithLogger(logger),
		jobstore.WithHooks(jobstore.Hooks{
			Created: func() {
				observability.JobsCreated.Inc()
				observability.JobsInflight.Inc()
			},
			Completed: func() {
				observability.JobsCompleted.Inc()
				observability.JobsInflight.Dec()
			},
			Failed: func() {
				observability.JobsFailed.Inc()
				observability.JobsInflight.Dec()
			},
			Evicted: func(n int) {
				observability.JobsEvicted.Add(float64(n))
			},
		}))
	defer store.Close()

	svc := signing.NewService(store, providerClient, signing.Options{
		DefaultLocale: cfg.Provider.DefaultLocale,
		ConsentPageID: cfg.Provider.ConsentPageID,
		Field: provider.FieldGeometry{
			Page:   cfg.Provider.Field.Page,
			X:      cfg.Provider.Field.X,
			Y:      cfg.Provider.Field.Y,
			Width:  cfg.Provider.Field.Width,
			Height: cfg.Provider.Field.Height,
		},
		ValidateDocument: document.ValidatePDF,
	}, logger)

	handlers.InitHealthManager(versionInfo.Version)
	manager := handlers.GetHealthManager()
	manager.RegisterChecker("jobstore", storeHealthChecker{store: store})
	manager.RegisterChecker("provider_config", providerHealthChecker{cfg: providerCfg})

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithSigningService(svc),
		server.WithAllowedOrigin(cfg.Server.AllowedOrigin),
		server.WithUploadLimit(cfg.Server.UploadLimitRPS, cfg.Server.UploadLimitBurst),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		server.WithMetrics(cfg.Metrics.Enabled),
		server.WithLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)
	}()

	logger.Info("signrelay serving",
		zap.String("addr", srv.Addr()),
		zap.Duration("job_ttl", cfg.Jobs.TTL),
		zap.Bool("metrics", cfg.Metrics.Enabled))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(foundry.ExitExternalServiceUnavailable, "HTTP server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Shutdown did not complete cleanly", err)
	}
	return nil
}

// storeHealthChecker reports whether the job store is usable.
type storeHealthChecker struct {
	store *jobstore.Store
}

func (c storeHealthChecker) CheckHealth(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("job store not initialized")
	}
	_ = c.store.Len()
	return nil
}

// providerHealthChecker reports whether the provider client has the
// credentials it needs. It does not call the provider.
type providerHealthChecker struct {
	cfg rest.Config
}

func (c providerHealthChecker) CheckHealth(ctx context.Context) error {
	return c.cfg.Validate()
}
