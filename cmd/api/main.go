package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/customcraft/internal/auth"
	"github.com/MrJamesThe3rd/customcraft/internal/config"
	"github.com/MrJamesThe3rd/customcraft/internal/database"
	"github.com/MrJamesThe3rd/customcraft/internal/fulfillment"
	ccHttp "github.com/MrJamesThe3rd/customcraft/internal/http"
	paymentHandler "github.com/MrJamesThe3rd/customcraft/internal/http/payment"
	statusHandler "github.com/MrJamesThe3rd/customcraft/internal/http/status"
	txHandler "github.com/MrJamesThe3rd/customcraft/internal/http/transaction"
	voucherHandler "github.com/MrJamesThe3rd/customcraft/internal/http/voucher"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger/filestore"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger/pgstore"
	"github.com/MrJamesThe3rd/customcraft/internal/metrics"
	"github.com/MrJamesThe3rd/customcraft/internal/rcon"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
	"github.com/MrJamesThe3rd/customcraft/internal/voucher"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openLedger(ctx, cfg)
	if err != nil {
		slog.Error("failed to open ledger", "driver", cfg.Ledger.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		authz      = auth.New(cfg.Admin.Key, cfg.Admin.TokenSecret)
		rconClient = rcon.New(cfg.RCON.Host, cfg.RCON.Port, cfg.RCON.Password)
		dispatcher = reward.NewDispatcher(rconClient, cfg.RCON.Timeout)
		vouchers   = voucher.NewService(store, authz)
		svc        = fulfillment.NewService(store, vouchers, dispatcher,
			fulfillment.WithLogger(logger),
			fulfillment.WithMetrics(metrics.NewFulfillmentMetrics(reg)),
		)
	)

	router := ccHttp.New(
		ccHttp.Options{
			Logger:         logger,
			Authorizer:     authz,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Metrics:        reg,
		},
		statusHandler.NewHandler(svc, cfg.App.Name, version),
		paymentHandler.NewHandler(svc),
		voucherHandler.NewHandler(svc),
		txHandler.NewHandler(svc),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server",
		"app", cfg.App.Name,
		"version", version,
		"port", cfg.App.Port,
		"minecraft", rconClient.Address(),
		"ledger", cfg.Ledger.Driver,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.Timeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}

	if cfg.App.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func openLedger(ctx context.Context, cfg *config.Config) (ledger.Store, func(), error) {
	if cfg.Ledger.Driver == config.DriverFile {
		store, err := filestore.New(cfg.Ledger.Dir)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil
	}

	db, err := database.Open(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	return pgstore.New(db), func() { db.Close() }, nil
}
