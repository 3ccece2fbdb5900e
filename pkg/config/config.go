package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged view of flags, env and config file
// that the rest of the server consumes.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // comma-separated subset of "flags", "env", "config"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.nanopub-db", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and the environment variable `NANOPUB_CONFIG` when the flag was
// not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("NANOPUB_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides applies NANOPUB_* environment overrides onto the
// provided cfg and reports whether any env var was used.
func ApplyEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("NANOPUB_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	} else {
		if host := os.Getenv("NANOPUB_ADDRESS"); host != "" {
			envUsed = true
			cfg.Server.Address = host
		}
		if port := os.Getenv("NANOPUB_PORT"); port != "" {
			envUsed = true
			if pi, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = pi
			}
		}
	}

	if v := os.Getenv("NANOPUB_DB_PATH"); v != "" {
		envUsed = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("NANOPUB_PUBLIC_URL"); v != "" {
		envUsed = true
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("NANOPUB_PAGE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			envUsed = true
			cfg.Storage.PageSize = n
		}
	}
	if v := os.Getenv("NANOPUB_MAX_NANOPUBS"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			envUsed = true
			cfg.Storage.MaxNanopubs = n
		}
	}
	if v := os.Getenv("NANOPUB_MAX_TRIPLES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			envUsed = true
			cfg.Storage.MaxNanopubTriples = n
		}
	}
	if v := os.Getenv("NANOPUB_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			envUsed = true
			cfg.Storage.MaxNanopubBytes = SizeBytes(n)
		}
	}
	if v := os.Getenv("NANOPUB_PEERS"); v != "" {
		envUsed = true
		cfg.Peers.Initial = parseList(v)
	}
	if v := os.Getenv("NANOPUB_REPLICATION_CRON"); v != "" {
		envUsed = true
		cfg.Peers.Replication.Enabled = true
		cfg.Peers.Replication.Cron = v
	}
	if v := os.Getenv("NANOPUB_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("NANOPUB_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("NANOPUB_API_ADMIN_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("NANOPUB_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	return envUsed
}

// LoadEffective loads the config file (missing file yields an empty
// config), applies env overrides and resolves addr/db-path precedence:
// explicit flags win over env, env wins over the file.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	var srcs []string

	cfg, err := Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return EffectiveConfigResult{}, err
		}
		cfg = &Config{}
	} else {
		srcs = append(srcs, "config")
	}

	if ApplyEnvOverrides(cfg) {
		srcs = append(srcs, "env")
	}

	addr := cfg.Addr()
	if flags.Set["addr"] {
		addr = flags.Addr
	}
	dbPath := cfg.Server.DBPath
	if dbPath == "" || flags.Set["db"] {
		dbPath = flags.DB
	}
	if len(flags.Set) > 0 {
		srcs = append(srcs, "flags")
	}

	return EffectiveConfigResult{
		Config: cfg,
		Addr:   addr,
		DBPath: dbPath,
		Source: strings.Join(srcs, ", "),
	}, nil
}
