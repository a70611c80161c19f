// cmd/web/main.go
//
// iZonehub API – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Optional Vault client (only when VAULT_ADDR is set), so `vault:`
//     references in configuration can be resolved.
//
//  2. Load configuration: defaults, conf/.env, conf/global.yaml, and
//     environment overrides.  The deployment mode is detected here.
//
//  3. Start the logger.  Persistent deployments write rotating files under
//     logs/ (teed to the console in a TTY); ephemeral ones log JSON to
//     stdout only.
//
//  4. Open the optional GeoLite2 database for access-log enrichment.
//
//  5. Compose the application.  Only a configuration error stops here;
//     database, schema, seed, static, and module failures degrade.
//
//  6. Serve until SIGINT or SIGTERM, then drain.
//
// With -create-schema the binary applies the bundled schema to the
// configured SQLite database and exits.  Persistent deployments never do
// this at startup.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/components"
	"github.com/izonedevs/izonehub-api/internal/bootstrap"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/logger"
	"github.com/izonedevs/izonehub-api/internal/requestinfo"
	"github.com/izonedevs/izonehub-api/internal/server"
	"github.com/izonedevs/izonehub-api/internal/vault"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	createSchema := flag.Bool("create-schema", false, "apply the bundled schema to the configured SQLite database and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *createSchema); err != nil {
		log.Fatalf("izonehub: %v", err)
	}
}

func run(ctx context.Context, createSchema bool) error {
	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	var opts config.Options
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(zap.S().Infof)
		if err != nil {
			return fmt.Errorf("vault: %w", err)
		}
		opts.Secrets = vc
	}

	//
	// ── 2.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx, opts)
	if err != nil {
		return err
	}

	//
	// ── 3.  Logger ──────────────────────────────────────────────────────
	//
	lg, err := logger.New(logger.Options{
		Root:  cfg.Paths.Root,
		File:  bootstrap.For(cfg.Mode).FileLogging,
		Tee:   runningInTTY(),
		Debug: cfg.App.Debug,
	})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	if createSchema {
		return applySchema(ctx, cfg, lg)
	}

	//
	// ── 4.  GeoIP (optional) ────────────────────────────────────────────
	//
	geo, err := requestinfo.OpenLocator(cfg.GeoIP.Database)
	if err != nil {
		lg.Warnw("geoip disabled", "path", cfg.GeoIP.Database, "err", err)
	}
	defer geo.Close()

	//
	// ── 5.  Compose ─────────────────────────────────────────────────────
	//
	app, err := bootstrap.New(ctx, cfg, lg, bootstrap.Options{
		Components: components.All(),
		Geo:        geo,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	for _, o := range app.Report() {
		lg.Debugw("startup step", "step", o.Step, "status", o.Status.String())
	}

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, app.Handler()), lg)
}

// applySchema is the explicit migration step for file-backed SQLite
// deployments.  Server databases are migrated with their own tooling.
func applySchema(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) error {
	target, err := database.ParseURL(cfg.DatabaseURL())
	if err != nil {
		return err
	}
	if target.Driver != "sqlite" {
		return fmt.Errorf("-create-schema supports SQLite only, got driver %q", target.Driver)
	}

	db, err := database.Open(ctx, cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db); err != nil {
		return err
	}
	lg.Infow("schema applied", "tables", len(database.Tables))
	return nil
}
