package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"nanopubd/pkg/config"
	"nanopubd/pkg/db"
	"nanopubd/pkg/journal"
	"nanopubd/pkg/logger"
	"nanopubd/pkg/replicate"
	"nanopubd/pkg/state"
	"nanopubd/pkg/store"
	"nanopubd/pkg/telemetry"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	st *store.Store
	db *db.NanopubDb

	stopReplication context.CancelFunc
}

// New initializes resources that do not require a running context: the
// state directories, the store, the journal and the nanopub db. It does
// not start replication or the HTTP server; call Run to start those and
// block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if eff.Config == nil {
		return nil, fmt.Errorf("missing effective config")
	}
	if eff.DBPath == "" {
		return nil, fmt.Errorf("db path is required")
	}

	paths, err := state.EnsureStateDirs(eff.DBPath)
	if err != nil {
		return nil, fmt.Errorf("state dirs: %w", err)
	}

	st, err := store.Open(paths.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", paths.Store, err)
	}

	j, err := journal.Open(st, eff.Config.Storage.EffectivePageSize())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}

	d := db.New(st, j, db.Policy{
		MaxNanopubTriples: eff.Config.Storage.MaxNanopubTriples,
		MaxNanopubBytes:   eff.Config.Storage.MaxNanopubBytes.Int64(),
		MaxNanopubs:       eff.Config.Storage.MaxNanopubs,
		PublicURL:         eff.Config.Server.PublicURL,
	})

	if err := d.AddInitialPeers(eff.Config.Peers.Initial); err != nil {
		st.Close()
		return nil, fmt.Errorf("initial peers: %w", err)
	}

	telemetry.RegisterJournal(j)

	logger.Info("journal_open",
		"id", j.ID(),
		"page_size", j.PageSize(),
		"next_nanopub_no", j.NextNanopubNo())

	a := &App{eff: eff, version: version, commit: commit, buildDate: buildDate, st: st, db: d}
	return a, nil
}

// Run starts replication (if enabled) and the HTTP server, and blocks
// until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stop, err := replicate.Start(ctx, a.db, a.eff.Config.Peers.Replication)
	if err != nil {
		return err
	}
	a.stopReplication = stop

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	if a.stopReplication != nil {
		a.stopReplication()
	}
	if a.st != nil {
		if err := a.st.Close(); err != nil {
			logger.Error("store_close_failed", "error", err)
		}
	}
}
