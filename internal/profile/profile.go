package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where erpdesk stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Cache configuration. Redis is optional; without it each instance
	// keeps its own in-memory cache.
	RedisAddr     string // ERPDESK_REDIS_ADDR
	RedisPassword string // ERPDESK_REDIS_PASSWORD
	RedisDB       int    // ERPDESK_REDIS_DB (default: 0)

	// PolicyFile is an optional YAML file overriding the built-in approval thresholds.
	PolicyFile string // ERPDESK_POLICY_FILE

	// Chat rate limiting per user.
	RateLimitPerSecond float64 // ERPDESK_RATE_LIMIT_RPS (default: 5)
	RateLimitBurst     int     // ERPDESK_RATE_LIMIT_BURST (default: 10)

	// RequestTimeout bounds a single chat request including domain agent work.
	RequestTimeout time.Duration // ERPDESK_REQUEST_TIMEOUT (default: 30s)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRedisEnabled reports whether a shared Redis cache is configured.
func (p *Profile) IsRedisEnabled() bool {
	return p.RedisAddr != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads the optional settings from ERPDESK_* environment variables.
// Invalid numbers are logged and replaced by their defaults.
func (p *Profile) FromEnv() {
	getInt := func(key string, defaultValue int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			slog.Warn("invalid integer in environment, using default", slog.String("key", key), slog.String("value", raw))
			return defaultValue
		}
		return v
	}
	getFloat := func(key string, defaultValue float64) float64 {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			slog.Warn("invalid number in environment, using default", slog.String("key", key), slog.String("value", raw))
			return defaultValue
		}
		return v
	}

	p.RedisAddr = os.Getenv("ERPDESK_REDIS_ADDR")
	p.RedisPassword = os.Getenv("ERPDESK_REDIS_PASSWORD")
	p.RedisDB = getInt("ERPDESK_REDIS_DB", 0)
	p.PolicyFile = os.Getenv("ERPDESK_POLICY_FILE")
	p.RateLimitPerSecond = getFloat("ERPDESK_RATE_LIMIT_RPS", 5)
	p.RateLimitBurst = getInt("ERPDESK_RATE_LIMIT_BURST", 10)

	p.RequestTimeout = 30 * time.Second
	if raw := getEnvOrDefault("ERPDESK_REQUEST_TIMEOUT", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			p.RequestTimeout = d
		} else {
			slog.Warn("invalid duration in environment, using default", slog.String("key", "ERPDESK_REQUEST_TIMEOUT"), slog.String("value", raw))
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and derives the SQLite DSN when none is given.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/erpdesk"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("erpdesk_%s.db", p.Mode))
	}
	if p.RateLimitPerSecond <= 0 {
		p.RateLimitPerSecond = 5
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = 10
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = 30 * time.Second
	}
	return nil
}
