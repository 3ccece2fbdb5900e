package app

import (
	"context"
	"net/http"

	"nanopubd/pkg/api"
	"nanopubd/pkg/auth"
	"nanopubd/pkg/banner"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}

// readyzHandler handles the /readyz endpoint.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !a.st.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	// include the running version to help ops verify what binary is active
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
}

// healthzHandler handles the /healthz endpoint.
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// startHTTP builds the handler, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	// health probes sit on the outer mux so they bypass the gateway
	outer := http.NewServeMux()
	outer.HandleFunc("/healthz", healthzHandler)
	outer.HandleFunc("/readyz", a.readyzHandler)
	outer.Handle("/", api.NewRouter(a.db, a.eff.Config, a.version))

	secCfg := auth.SecConfig{
		RPS:       a.eff.Config.Security.RateLimit.RPS,
		Burst:     a.eff.Config.Security.RateLimit.Burst,
		AdminKeys: map[string]struct{}{},
	}
	for _, k := range a.eff.Config.Security.APIKeys.Admin {
		secCfg.AdminKeys[k] = struct{}{}
	}

	srv := &http.Server{Addr: a.eff.Addr, Handler: auth.GatewayMiddleware(secCfg)(outer)}

	errCh := make(chan error, 1)
	go func() {
		cert := a.eff.Config.Server.TLS.CertFile
		key := a.eff.Config.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()
	return errCh
}
