package handlers

import (
	"nanopubd/pkg/config"
	"nanopubd/pkg/db"
)

// Handlers carries the injected dependencies for all HTTP handlers.
type Handlers struct {
	DB      *db.NanopubDb
	Cfg     *config.Config
	Version string
}

// New builds the handler set over a NanopubDb.
func New(d *db.NanopubDb, cfg *config.Config, version string) *Handlers {
	return &Handlers{DB: d, Cfg: cfg, Version: version}
}
