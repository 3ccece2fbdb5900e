// Package api wires the HTTP routes over an injected NanopubDb.
package api

import (
	"github.com/gorilla/mux"

	"nanopubd/pkg/api/handlers"
	"nanopubd/pkg/config"
	"nanopubd/pkg/db"
	"nanopubd/pkg/telemetry"
)

// NewRouter builds the full route set. Health probes live on the outer
// mux in the app so they bypass the gateway middleware.
func NewRouter(d *db.NanopubDb, cfg *config.Config, version string) *mux.Router {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)

	h := handlers.New(d, cfg, version)
	h.RegisterNanopubs(r)
	h.RegisterJournal(r)
	h.RegisterPeers(r)
	h.RegisterInfo(r)

	r.Handle("/metrics", telemetry.Handler()).Methods("GET")
	return r
}
