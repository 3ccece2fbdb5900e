package auth

// Role classifies a caller for the purposes of the gateway middleware.
type Role int

const (
	// RoleUnauth is any caller without a recognized API key. Reads are
	// open to everyone; nanopub servers publish public data.
	RoleUnauth Role = iota
	// RoleAdmin holds a configured admin API key and may hit mutating
	// endpoints when admin keys are configured.
	RoleAdmin
)

// SecConfig carries the gateway settings derived from config.
type SecConfig struct {
	RPS   float64
	Burst int
	// AdminKeys guards mutating endpoints. Empty means open (the usual
	// deployment for a public nanopub server).
	AdminKeys map[string]struct{}
}
