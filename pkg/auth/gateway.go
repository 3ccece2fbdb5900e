package auth

import (
	"net"
	"net/http"
	"strings"

	"nanopubd/pkg/logger"
	"nanopubd/pkg/utils"
)

// GatewayMiddleware applies rate limiting to every request and, when
// admin keys are configured, requires one for mutating methods. Reads
// stay open: every nanopub this server holds is public by construction.
func GatewayMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	// rate limiters keyed by api key or remote ip
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			// allow unauthenticated health checks for probes
			if (r.URL.Path == "/healthz" || r.URL.Path == "/readyz") && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			role, key := authenticate(r, cfg)

			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				if len(cfg.AdminKeys) > 0 && role != RoleAdmin {
					utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
					logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
					return
				}
			}

			if !limiters.Allow(key) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, cfg SecConfig) (Role, string) {
	// prefer authorization: bearer <key>, fallback to x-api-key
	auth := r.Header.Get("Authorization")
	var key string
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		key = strings.TrimSpace(auth[7:])
	}
	if key == "" {
		key = r.Header.Get("X-API-Key")
	}
	if key == "" {
		return RoleUnauth, clientIP(r)
	}
	if _, ok := cfg.AdminKeys[key]; ok {
		return RoleAdmin, key
	}
	return RoleUnauth, key
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
