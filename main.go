package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"art-platform/backend/config"
	"art-platform/backend/database"
	"art-platform/backend/database/mongostore"
	"art-platform/backend/handlers"
	"art-platform/backend/logger"
	"art-platform/backend/metrics"
	"art-platform/backend/middleware"
	"art-platform/backend/security"
	"art-platform/backend/seed"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := runSeed(ctx, os.Args[2:]); err != nil {
			log.Fatal("Seed failed: ", err)
		}
		return
	}

	if err := serve(ctx); err != nil {
		log.Fatal(err)
	}
}

func openStore(ctx context.Context, c config.DatabaseConfig) (database.Store, error) {
	switch c.Driver {
	case "mongo":
		return mongostore.Open(ctx, c.URI, c.Name)
	case "postgres":
		return database.OpenGorm("postgres", c.DSN)
	default:
		return database.OpenGorm("sqlite", c.Path)
	}
}

func runSeed(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "seed.yaml", "YAML file with users and documents")
	if err := flags.Parse(args); err != nil {
		return err
	}

	f, err := seed.Load(*file)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, config.C.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := seed.Apply(ctx, store, f)
	if err != nil {
		return err
	}
	fmt.Printf("users: %d created, %d skipped; documents: %d created, %d skipped\n",
		res.UsersCreated, res.UsersSkipped, res.DocumentsCreated, res.DocumentsSkipped)
	return nil
}

func serve(ctx context.Context) error {
	sessionStore, err := handlers.NewSessionStore(config.C)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	store, err := openStore(ctx, config.C.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	slog.SetDefault(slog.New(logger.NewDBHandler(store, logger.ParseLevel(config.C.Logs.Level))))
	go logger.CleanupOldLogs(ctx, store, config.C.Logs.Retention, time.Hour)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	svc := security.NewService(store,
		security.NewTOTP(config.C.TwoFA.Issuer, config.C.TwoFA.Skew),
		security.QREncoder{Size: config.C.TwoFA.QRSize})
	h := handlers.New(store, svc, sessionStore)

	srv := &http.Server{
		Addr:              config.C.Listen,
		Handler:           routes(ctx, h, sessionStore, config.C),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server starting", "source", "main", "listen", config.C.Listen, "driver", config.C.Database.Driver)

	errCh := make(chan error, 1)
	go func() {
		if config.C.TLS.Enabled {
			errCh <- srv.ListenAndServeTLS(config.C.TLS.Cert, config.C.TLS.Key)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("server stopping", "source", "main")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func routes(ctx context.Context, h *handlers.Handler, sessionStore sessions.Store, c config.Config) http.Handler {
	authRateLimiter := middleware.NewRateLimiter(ctx, c.RateLimit.Requests, c.RateLimit.Window)
	if trusted, err := c.RateLimit.TrustedPrefixes(); err != nil {
		slog.Error("ignoring trusted proxies", "source", "main", "error", err.Error())
	} else {
		authRateLimiter.TrustProxies(trusted...)
	}
	requireUser := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireUser(sessionStore, next)
	}

	mux := http.NewServeMux()

	// Health check (unauthenticated, for load balancers)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /compliance-documents", h.ComplianceDocuments)

	// Auth routes (public, rate limited)
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("POST /login", authRateLimiter.LimitFunc(h.Login))
	mux.HandleFunc("GET /register", h.RegisterPage)
	mux.HandleFunc("POST /register", authRateLimiter.LimitFunc(h.Register))
	mux.HandleFunc("POST /logout", h.Logout)

	// Account security routes act on the session's user
	mux.HandleFunc("GET /security-settings", requireUser(h.SecuritySettings))
	mux.HandleFunc("POST /security-settings/toggle-2fa", requireUser(h.ToggleTwoFA))
	mux.HandleFunc("GET /twofa-setup", requireUser(h.TwoFASetup))
	mux.HandleFunc("POST /verify-2fa", authRateLimiter.LimitFunc(requireUser(h.VerifyTwoFA)))
	mux.HandleFunc("GET /security-events", requireUser(h.SecurityEvents))

	csrf := middleware.NewCSRFProtection(c.Session.Secret, c.TLS.Enabled)
	return middleware.WithMetrics(middleware.SecurityHeaders(csrf.Protect(mux)))
}
