package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"secretsanta/internal/draw"
	"secretsanta/internal/events"
	"secretsanta/internal/handlers"
	"secretsanta/internal/services"
	"secretsanta/internal/store"
)

const timeout = 10 * time.Second

func serveCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.adminToken, "admin-token", "", "token enabling the admin routes (env: SECRETSANTA_ADMIN_TOKEN)")
	fs.StringVar(&cfg.baseURL, "base-url", "", "public URL encoded in the share QR code (env: SECRETSANTA_BASE_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SECRETSANTA_BIND)")
	fs.BoolVar(&cfg.demo, "demo", false, "seed new draw instances with the demo participants (env: SECRETSANTA_DEMO)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SECRETSANTA_PORT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", time.Hour, "time before idle sessions are evicted from memory (env: SECRETSANTA_SESSION_TIMEOUT)")
	fs.BoolVar(&cfg.showPasswords, "show-passwords", false, "let admins list participant passwords (env: SECRETSANTA_SHOW_PASSWORDS)")
	bindEnv(v, fs)

	return cmd
}

func serve(ctx context.Context, cfg *Config) error {
	st, err := store.Open(cfg.storeKind, cfg.dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	broker := events.NewBroker()
	service := services.NewSantaService(st, broker, draw.NewGenerator(cfg.maxAttempts, nil))
	service.AutoSeed = cfg.demo

	if !cfg.verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	httpHandler := handlers.NewHTTPHandler(service, broker, handlers.Options{
		AdminToken:    cfg.adminToken,
		ShowPasswords: cfg.showPasswords,
		BaseURL:       cfg.baseURL,
		Version:       releaseVersion,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           httpHandler.NewRouter(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: timeout,
	}

	go janitor(ctx, service, cfg.sessionTimeout)

	errs := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on http://%s (store: %s)", srv.Addr, cfg.storeKind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// janitor evicts idle sessions until ctx is done.
func janitor(ctx context.Context, service *services.SantaService, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := service.CleanUpInactiveSessions(maxIdle); n > 0 {
				logger.Infof("Performed cleanup of %d inactive session(s).", n)
			}
		}
	}
}
