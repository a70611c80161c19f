// Package bootstrap composes the API from a loaded configuration.
//
// New runs the startup steps in order and records an outcome.Outcome for
// each:
//
//  1. database   open the process-wide engine (Failed → routes needing a
//     database report Unavailable and are not mounted)
//  2. schema     ephemeral only
//  3. seed       ephemeral only, after a successful schema step
//  4. static     mount the uploads directory at /uploads/
//  5. component  one outcome per router module, in registry order
//
// Only a configuration error is returned as an error.  Every other
// failure degrades the API; the root and health endpoints are always
// served.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/mail"
	"github.com/izonedevs/izonehub-api/internal/metrics"
	"github.com/izonedevs/izonehub-api/internal/middleware"
	"github.com/izonedevs/izonehub-api/internal/outcome"
	"github.com/izonedevs/izonehub-api/internal/requestinfo"
	"github.com/izonedevs/izonehub-api/internal/seed"
)

// Options supplies collaborators.  Zero values pick production defaults.
type Options struct {
	Components []component.Component
	Engine     *database.Engine     // nil → NewEngine(cfg.DatabaseURL())
	Mailer     mail.Sender          // nil → mail.New(cfg.SMTP, cfg.Mode)
	Geo        *requestinfo.Locator // nil disables geolocation
}

// App is the composed API.
type App struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	behavior Behavior
	engine   *database.Engine
	db       *sqlx.DB
	router   chi.Router
	registry *component.Registry
	report   []outcome.Outcome
}

// New runs the startup steps.  See the package comment.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	if log == nil {
		log = zap.S()
	}
	tokens, err := auth.NewTokens(cfg.Auth, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	proxies, err := requestinfo.ParseProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		behavior: For(cfg.Mode),
		engine:   opts.Engine,
		registry: component.NewRegistry(opts.Components...),
	}
	if a.engine == nil {
		a.engine = database.NewEngine(cfg.DatabaseURL(), database.DefaultOptions)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.New(cfg.SMTP, cfg.Mode, log)
	}

	log.Infow("bootstrap", "mode", cfg.Mode, "schema", a.behavior.CreateSchema, "seed", a.behavior.Seed)

	schemaOK := a.record(a.openDatabase(ctx)).Live()
	if a.behavior.CreateSchema {
		schemaOK = a.record(a.createSchema(ctx)).Live()
	} else {
		a.record(outcome.Skip("schema"))
	}
	if a.behavior.Seed && schemaOK {
		a.record(a.seed(ctx))
	} else if a.behavior.Seed {
		a.record(outcome.Unavailablef("seed", "schema not ready"))
	} else {
		a.record(outcome.Skip("seed"))
	}

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.Recoverer,
		requestinfo.Enrich(opts.Geo, proxies),
		middleware.AccessLog(log),
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.Security,
		middleware.CORS(a.behavior.Origins(cfg.CORS.AllowedOrigins)),
	)
	a.router = r
	a.mountBase(r)
	a.record(a.mountStatic(r))

	// Bearer tokens are only parsed for feature routes, so a stale token
	// never breaks /health.
	api := r.With(auth.Authenticate(tokens))
	deps := component.Deps{
		DB:      a.db,
		Config:  cfg,
		Tokens:  tokens,
		Mailer:  mailer,
		Log:     log,
		Uploads: component.Uploads{Writable: a.behavior.WritableUploads, URLPrefix: StaticPrefix},
	}
	for _, o := range a.registry.Mount(api, deps) {
		a.record(o)
	}
	return a, nil
}

// record logs o, counts it, and appends it to the report.
func (a *App) record(o outcome.Outcome) outcome.Outcome {
	o.Log(a.log)
	metrics.StartupSteps.WithLabelValues(o.Step, o.Status.String()).Inc()
	a.report = append(a.report, o)
	return o
}

func (a *App) openDatabase(ctx context.Context) outcome.Outcome {
	db, err := a.engine.Get(ctx)
	if err != nil {
		return outcome.FromError("database", err)
	}
	a.db = db
	return outcome.Ok("database")
}

func (a *App) createSchema(ctx context.Context) outcome.Outcome {
	if a.db == nil {
		return outcome.Unavailablef("schema", "no database")
	}
	return outcome.FromError("schema", database.CreateSchema(ctx, a.db))
}

func (a *App) seed(ctx context.Context) outcome.Outcome {
	res, err := seed.Run(ctx, a.db, seed.Options{Mode: a.cfg.Mode, IncludeDirectory: a.behavior.SeedDirectory})
	if err != nil {
		return outcome.FromError("seed", err)
	}
	a.log.Infow("seed", "skipped", res.Skipped, "admin_id", res.AdminID, "created", res.Total())
	return outcome.Ok("seed")
}

// Handler returns the root handler.
func (a *App) Handler() http.Handler { return a.router }

// Report returns every startup outcome in order.
func (a *App) Report() []outcome.Outcome {
	return append([]outcome.Outcome(nil), a.report...)
}

// Outcome returns the first outcome recorded for step.
func (a *App) Outcome(step string) (outcome.Outcome, bool) {
	for _, o := range a.report {
		if o.Step == step {
			return o, true
		}
	}
	return outcome.Outcome{}, false
}

// DB returns the shared pool, or nil in degraded mode.
func (a *App) DB() *sqlx.DB { return a.db }

// Behavior returns the plan row in effect.
func (a *App) Behavior() Behavior { return a.behavior }

// Close releases the database pool.
func (a *App) Close() error { return a.engine.Close() }
