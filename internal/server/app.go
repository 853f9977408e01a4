// Package server wires the labdesk handlers into one HTTP handler with the
// middleware chain.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"labdesk/internal/audit"
	"labdesk/internal/export"
	"labdesk/internal/handlers/common"
	"labdesk/internal/handlers/lab"
	"labdesk/internal/handlers/registration"
	"labdesk/internal/handlers/schedule"
	"labdesk/internal/listing"
	"labdesk/internal/logging"
	"labdesk/internal/response"
	"labdesk/internal/services"
	"labdesk/internal/store"
	"labdesk/internal/websocket"
	"labdesk/internal/wizard"
)

// Options are the dependencies New wires together.
type Options struct {
	Log        *zap.Logger
	DB         *sql.DB
	Hub        *websocket.Hub
	Registry   *services.Registry
	Calendar   schedule.Collector
	Tokens     common.TokenStore
	HourHeight float64
	Limiter    *RateLimiter

	// Now replaces time.Now in handlers and the wizard.
	Now func() time.Time
	// WizardOptions are passed to wizard.NewManager.
	WizardOptions []wizard.ManagerOption
}

// App holds shared dependencies for the application.
type App struct {
	Log     *zap.Logger
	Hub     *websocket.Hub
	Audit   *audit.Logger
	Limiter *RateLimiter

	Lab          *lab.Handler
	Schedule     *schedule.Handler
	Registration *registration.Handler
	Common       *common.Handler
}

// New builds the App. DB must already be migrated.
func New(o Options) *App {
	log := logging.OrNop(o.Log)
	hub := o.Hub
	if hub == nil {
		hub = websocket.NewHub(log)
	}
	limiter := o.Limiter
	if limiter == nil {
		limiter = NewRateLimiter()
	}
	auditLog := audit.New(o.DB, hub, log)
	sessions := store.NewSessions(o.DB)
	wizardOpts := o.WizardOptions
	if o.Now != nil {
		wizardOpts = append([]wizard.ManagerOption{wizard.WithClock(o.Now)}, wizardOpts...)
	}

	labHandler := lab.New(o.Registry, auditLog, log, o.Now)
	reg := o.Registry
	return &App{
		Log:     log,
		Hub:     hub,
		Audit:   auditLog,
		Limiter: limiter,
		Lab:     labHandler,
		Schedule: &schedule.Handler{
			Calendar:   o.Calendar,
			HourHeight: o.HourHeight,
			Now:        o.Now,
		},
		Registration: &registration.Handler{
			Wizard:   wizard.NewManager(sessions, wizardOpts...),
			Sessions: sessions,
			Audit:    auditLog,
		},
		Common: &common.Handler{
			Audit:  auditLog,
			Tokens: o.Tokens,
			LoadSnapshot: func(ctx context.Context) (listing.Snapshot, error) {
				return listing.LoadSnapshot(ctx, reg)
			},
			Sheet: func(ctx context.Context, entity string, v url.Values) (export.Sheet, bool, error) {
				if !labHandler.Has(entity) {
					return export.Sheet{}, false, nil
				}
				s, err := labHandler.Sheet(ctx, entity, v)
				return s, true, err
			},
			Invalidate: reg.InvalidateAll,
			Now:        o.Now,
		},
	}
}

// Handler returns the root handler with middleware applied.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{"status": "ok", "clients": a.Hub.Clients()})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/ws", a.Hub)
	mux.HandleFunc("/api/v1/", a.route)

	var h http.Handler = mux
	h = RateLimitMiddleware(a.Limiter)(h)
	h = GzipMiddleware(h)
	h = SecurityHeaders(h)
	h = LoggingMiddleware(a.Log)(h)
	return h
}
