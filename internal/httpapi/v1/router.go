// Package v1 wires the HTTP surface of the bookkeeping service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/govalues/money"

	"github.com/tinoosan/bookkeeping/internal/cache"
	"github.com/tinoosan/bookkeeping/internal/service/chart"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
	"github.com/tinoosan/bookkeeping/internal/service/report"
)

// Options tunes the optional parts of the server. The zero value gives an
// uncached, unlimited server rendering amounts in INR.
type Options struct {
	// Cache stores rendered reports; nil disables caching.
	Cache *cache.Reports
	// Currency is used for the display strings next to decimal amounts.
	Currency money.Currency
	// RequestTimeout cancels request contexts after the given duration.
	RequestTimeout time.Duration
	// RateLimitPerMinute caps requests per client IP; 0 disables the limit.
	RateLimitPerMinute int
	// Ready lists extra dependencies checked by /readyz besides the store.
	Ready []ReadyChecker
}

// Server wires handlers and middleware using Chi.
type Server struct {
	chart    chart.Service
	registry registry.Service
	journal  journal.Service
	reports  report.Service
	versions VersionSource
	ready    []ReadyChecker
	cache    *cache.Reports
	currency money.Currency
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server over store with routes and middleware.
// The logger is used by request logging, panic recovery and the services.
func New(store Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Currency == money.XXX {
		opts.Currency = money.INR
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	r.Use(secureHeaders())
	if opts.RateLimitPerMinute > 0 {
		r.Use(rateLimit(opts.RateLimitPerMinute))
	}
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	s := &Server{
		chart:    chart.New(store, store, logger),
		registry: registry.New(store, store, logger),
		journal:  journal.New(store, store, logger),
		reports:  report.New(store),
		versions: store,
		ready:    append([]ReadyChecker{store}, opts.Ready...),
		cache:    opts.Cache,
		currency: opts.Currency,
		log:      logger,
		rt:       r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
	s.rt.Get("/v1/dictionary/groups", s.getGroupsDictionary)

	s.rt.Route("/v1/companies/{companyID}", func(r chi.Router) {
		r.Use(companyScope)
		r.Post("/seed", s.seedCompany)

		r.Get("/groups", s.listGroups)
		r.With(requireJSON, decodeBody[chart.GroupInput](ctxKeyGroupInput)).Post("/groups", s.postGroup)
		r.With(pathID("groupID", ctxKeyGroupID), requireJSON, decodeBody[chart.GroupPatch](ctxKeyGroupPatch)).Patch("/groups/{groupID}", s.patchGroup)
		r.With(pathID("groupID", ctxKeyGroupID)).Delete("/groups/{groupID}", s.deleteGroup)

		r.Get("/ledgers", s.listLedgers)
		r.With(requireJSON, decodeBody[registry.LedgerInput](ctxKeyLedgerInput)).Post("/ledgers", s.postLedger)
		r.With(pathID("ledgerID", ctxKeyLedgerID)).Get("/ledgers/{ledgerID}", s.getLedger)
		r.With(pathID("ledgerID", ctxKeyLedgerID), requireJSON, decodeBody[registry.LedgerPatch](ctxKeyLedgerPatch)).Patch("/ledgers/{ledgerID}", s.patchLedger)
		r.With(pathID("ledgerID", ctxKeyLedgerID)).Delete("/ledgers/{ledgerID}", s.deleteLedger)

		r.Get("/vouchers", s.listVouchers)
		r.With(requireJSON, s.validateVoucher).Post("/vouchers", s.postVoucher)
		r.Get("/vouchers/next-number", s.nextVoucherNumber)
		r.With(pathID("voucherID", ctxKeyVoucherID)).Get("/vouchers/{voucherID}", s.getVoucher)
		r.With(pathID("voucherID", ctxKeyVoucherID)).Delete("/vouchers/{voucherID}", s.deleteVoucher)

		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/profit-loss", s.profitAndLoss)
		r.Get("/reports/balance-sheet", s.balanceSheet)
		r.With(pathID("ledgerID", ctxKeyLedgerID)).Get("/reports/ledgers/{ledgerID}/statement", s.ledgerStatement)
		r.Get("/dashboard", s.dashboard)
	})
}
