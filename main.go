package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendwise/backend/api"
	"spendwise/backend/billing"
	"spendwise/backend/config"
	"spendwise/backend/database"
	"spendwise/backend/logging"
	"spendwise/backend/metrics"
	"spendwise/backend/middleware"
	"spendwise/backend/migrations"
	"spendwise/backend/security"
	"spendwise/backend/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String(logging.FieldError, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)
	appLogger := logging.WithComponent(logger, logging.ComponentApp)

	if err := cfg.Validate(); err != nil {
		return err
	}
	appLogger.Info("starting spendwise backend",
		slog.String(logging.FieldOperation, logging.OpStartup),
		slog.String("env", cfg.Env),
		slog.String("db_driver", cfg.DBDriver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := migrations.RunMigrations(cfg.DBDriver, cfg.DSN()); err != nil {
		return err
	}
	if err := database.InitDB(ctx, cfg.DBDriver, cfg.DSN()); err != nil {
		return err
	}
	defer database.DB.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	issuer := security.NewTokenIssuer(cfg.SessionSecret, "spendwise", cfg.SessionTTL)
	resolvers := middleware.ChainResolver{middleware.TokenResolver{Issuer: issuer}}
	if cfg.FirebaseEnabled() {
		client, err := middleware.InitializeFirebase(ctx, cfg.FirebaseCredentialsJSON, cfg.FirebaseCredentialsBase64, cfg.FirebaseProjectID)
		if err != nil {
			return err
		}
		resolvers = append(resolvers, middleware.FirebaseResolver{
			Verifier: client,
			Users:    services.NewUserService(database.DB, m),
		})
		appLogger.Info("firebase ID tokens accepted as sessions")
	}

	var provider billing.Provider
	if cfg.StripeSecretKey != "" {
		provider, err = billing.NewStripeProvider(billing.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			PriceID:       cfg.StripePriceID,
			WebhookSecret: cfg.StripeWebhookSecret,
		})
		if err != nil {
			return err
		}
	} else {
		appLogger.Warn("STRIPE_SECRET_KEY not set, billing endpoints are disabled")
	}

	scheduler, err := services.NewScheduler(services.NewBillService(database.DB), cfg.BillResetSchedule, logger, m)
	if err != nil {
		return err
	}
	scheduler.Start()

	server := api.NewServer(api.Options{
		DB:          database.DB,
		Logger:      logger,
		Metrics:     m,
		Resolver:    resolvers,
		Issuer:      issuer,
		Billing:     provider,
		AppURL:      cfg.AppURL,
		CORSOrigins: cfg.CORSOrigins,
		DevMode:     !cfg.IsProduction(),
	})

	srv := &http.Server{
		Handler:           server.Handler(),
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("shutting down", slog.String(logging.FieldOperation, logging.OpShutdown))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
