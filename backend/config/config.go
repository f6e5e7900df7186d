package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen    string          `yaml:"listen"`
	PublicURL string          `yaml:"public_url"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	TwoFA     TwoFAConfig     `yaml:"twofa"`
	Logs      LogsConfig      `yaml:"logs"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	TLS       TLSConfig       `yaml:"tls"`
}

type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// DatabaseConfig selects the record store. Driver is one of "sqlite", "postgres" or "mongo".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // sqlite file
	DSN    string `yaml:"dsn"`  // postgres connection string
	URI    string `yaml:"uri"`  // mongo connection string
	Name   string `yaml:"name"` // mongo database name
}

type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Secret  string        `yaml:"secret"`
}

type TwoFAConfig struct {
	Issuer string `yaml:"issuer"`
	QRSize int    `yaml:"qr_size"`
	Skew   uint   `yaml:"skew"` // accepted time steps either side of now
}

type LogsConfig struct {
	Level     string        `yaml:"level"`
	Retention time.Duration `yaml:"retention"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	// Peers allowed to set X-Forwarded-For, as addresses or CIDR ranges
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedPrefixes parses TrustedProxies. A bare address becomes a single-host prefix.
func (c RateLimitConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, p := range c.TrustedProxies {
		p = strings.TrimSpace(p)
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

var C Config

// Defaults returns the configuration used when neither config.yaml nor the
// environment say otherwise.
func Defaults() Config {
	return Config{
		Listen:    ":5000",
		PublicURL: "http://localhost:5000",
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "art-platform.db",
			URI:    "mongodb://localhost:27017",
			Name:   "art-platform",
		},
		Session: SessionConfig{
			Timeout: 24 * time.Hour,
		},
		TwoFA: TwoFAConfig{
			Issuer: "Art Platform",
			QRSize: 200,
			Skew:   1,
		},
		Logs: LogsConfig{
			Level:     "info",
			Retention: 30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 10,
			Window:   time.Minute,
		},
	}
}

func Load() error {
	C = Defaults()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		path = v
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &C); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// .env never overrides variables that are already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}

	// Environment overrides
	if v := os.Getenv("LISTEN"); v != "" {
		C.Listen = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		C.PublicURL = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		C.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		C.Database.Path = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		C.Database.DSN = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		C.Database.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		C.Database.Name = v
	}
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Session.Timeout = d
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		C.Session.Secret = v
	}
	if v := os.Getenv("TWOFA_ISSUER"); v != "" {
		C.TwoFA.Issuer = v
	}
	if v := os.Getenv("TWOFA_QR_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			C.TwoFA.QRSize = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		C.Logs.Level = v
	}
	if v := os.Getenv("LOG_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Logs.Retention = d
		}
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			C.RateLimit.Requests = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.RateLimit.Window = d
		}
	}
	if v := os.Getenv("RATE_LIMIT_TRUSTED_PROXIES"); v != "" {
		C.RateLimit.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("TLS_ENABLED"); v == "true" {
		C.TLS.Enabled = true
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		C.TLS.Cert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		C.TLS.Key = v
	}

	return C.Validate()
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mongo":
	default:
		return fmt.Errorf("unknown database driver %q (use sqlite, postgres or mongo)", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for the postgres driver")
	}
	if c.TwoFA.QRSize <= 0 {
		return fmt.Errorf("twofa qr_size must be positive, got %d", c.TwoFA.QRSize)
	}
	if c.TwoFA.Issuer == "" {
		return fmt.Errorf("twofa issuer must not be empty")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit requests and window must be positive")
	}
	if _, err := c.RateLimit.TrustedPrefixes(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if c.TLS.Enabled && (c.TLS.Cert == "" || c.TLS.Key == "") {
		return fmt.Errorf("tls cert and key are required when tls is enabled")
	}
	return nil
}
