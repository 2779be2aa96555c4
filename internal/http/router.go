package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apimw "github.com/MrJamesThe3rd/customcraft/internal/http/middleware"
	"github.com/MrJamesThe3rd/customcraft/internal/http/payment"
	"github.com/MrJamesThe3rd/customcraft/internal/http/status"
	"github.com/MrJamesThe3rd/customcraft/internal/http/transaction"
	"github.com/MrJamesThe3rd/customcraft/internal/http/voucher"
)

type Options struct {
	Logger         *slog.Logger
	Authorizer     apimw.Authorizer
	AllowedOrigins []string
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer
}

func New(
	opts Options,
	statusV1 *status.Handler,
	paymentsV1 *payment.Handler,
	vouchersV1 *voucher.Handler,
	transactionsV1 *transaction.Handler,
) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimw.NewStructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", apimw.AdminKeyHeader},
		MaxAge:         300,
	}))

	statusV1.Routes(router)

	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			paymentsV1.Routes(r)
			vouchersV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(opts.Authorizer))
			transactionsV1.Routes(r)
			vouchersV1.AdminRoutes(r)
			statusV1.AdminRoutes(r)
		})
	})

	if opts.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))
	}

	return router
}
