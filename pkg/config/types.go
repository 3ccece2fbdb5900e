package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Peers    PeersConfig    `yaml:"peers"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds http, identity and tls settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// PublicURL is the URL under which this instance is reachable by
	// peers. Peer self-registration is detected by comparing against it.
	PublicURL string    `yaml:"public_url"`
	DBPath    string    `yaml:"db_path"`
	TLS       TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// StorageConfig holds journal sizing and admission policy. Zero limits
// mean "unlimited"; PageSize falls back to DefaultPageSize.
type StorageConfig struct {
	PageSize          int64     `yaml:"page_size"`
	MaxNanopubTriples int64     `yaml:"max_nanopub_triples"`
	MaxNanopubBytes   SizeBytes `yaml:"max_nanopub_bytes"`
	MaxNanopubs       int64     `yaml:"max_nanopubs"`
}

// DefaultPageSize is the journal page size used when none is configured.
const DefaultPageSize = 1000

// EffectivePageSize returns the configured page size or the default.
func (s StorageConfig) EffectivePageSize() int64 {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return DefaultPageSize
}

// PeersConfig holds the initial peer list and replication scheduling.
type PeersConfig struct {
	Initial     []string          `yaml:"initial"`
	Replication ReplicationConfig `yaml:"replication"`
}

// ReplicationConfig controls the scheduled pull-replication runner.
type ReplicationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// SecurityConfig holds security related settings.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	APIKeys struct {
		Admin []string `yaml:"admin"`
	} `yaml:"api_keys"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }
