// Package config loads service settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vadimbarashkov/shortcode/internal/shortcode"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	ClicksSync  = "sync"
	ClicksAsync = "async"
)

// maxShortCodeLength is the width of the urls.short_code column.
const maxShortCodeLength = 64

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env        string     `yaml:"env"`
	ShortCode  ShortCode  `yaml:"short_code"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
	Postgres   Postgres   `yaml:"postgres"`
	CORS       CORS       `yaml:"cors"`
	Clicks     Clicks     `yaml:"clicks"`
	Cache      Cache      `yaml:"cache"`
	Log        Log        `yaml:"log"`
}

type ShortCode struct {
	Length      int    `yaml:"length"`
	Alphabet    string `yaml:"alphabet"`
	MaxAttempts int    `yaml:"max_attempts"`
}

var defaultShortCode = ShortCode{
	Length:      shortcode.DefaultLength,
	Alphabet:    shortcode.DefaultAlphabet,
	MaxAttempts: 1000,
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// TLS reports whether both certificate and key are configured.
func (s *HTTPServer) TLS() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

// Storage selects the URL store. An empty DSN for postgres means the DSN is
// assembled from the postgres section.
type Storage struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

var defaultStorage = Storage{
	Driver: DriverPostgres,
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	SSLRootCert     string        `yaml:"sslrootcert"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	ConnectAttempts: 5,
	ConnectBackoff:  2 * time.Second,
}

// DSN builds the connection string. A configured root certificate raises a
// disabled or empty sslmode to verify-full.
func (p *Postgres) DSN() string {
	sslMode := p.SSLMode
	if p.SSLRootCert != "" && (sslMode == "" || sslMode == "disable") {
		sslMode = "verify-full"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User), url.QueryEscape(p.Password), p.Host, p.Port, p.DB, sslMode)

	if p.SSLRootCert != "" {
		dsn += "&sslrootcert=" + url.QueryEscape(p.SSLRootCert)
	}

	return dsn
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var defaultCORS = CORS{
	AllowedOrigins: []string{"*"},
}

type Clicks struct {
	Mode      string `yaml:"mode"`
	QueueSize int    `yaml:"queue_size"`
	Workers   int    `yaml:"workers"`
}

var defaultClicks = Clicks{
	Mode:      ClicksSync,
	QueueSize: 1024,
	Workers:   4,
}

type Cache struct {
	Enabled  bool          `yaml:"enabled"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

var defaultCache = Cache{
	TTL: time.Hour,
}

type Log struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

var defaultLog = Log{
	Level:      "info",
	MaxSizeMB:  100,
	MaxBackups: 3,
	MaxAgeDays: 28,
}

// SlogLevel parses Level. Unknown values fall back to info.
func (l *Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. Variables from a .env file in the working directory
// are loaded first without replacing ones already set. An empty path means
// defaults and environment only.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortCode = defaultShortCode
	cfg.HTTPServer = defaultHTTPServer
	cfg.Storage = defaultStorage
	cfg.Postgres = defaultPostgres
	cfg.CORS = defaultCORS
	cfg.Clicks = defaultClicks
	cfg.Cache = defaultCache
	cfg.Log = defaultLog
}

func applyEnv(cfg *Config) error {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Storage.DSN = dsn
		if driver, ok := driverForDSN(dsn); ok {
			cfg.Storage.Driver = driver
		}
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}

	if caFile := os.Getenv("DATABASE_CA_FILE"); caFile != "" {
		cfg.Postgres.SSLRootCert = caFile
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.RedisURL = redisURL
	}

	if port := os.Getenv("HTTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: HTTP_PORT must be a number: %q", ErrInvalidConfig, port)
		}
		cfg.HTTPServer.Port = p
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return nil
}

// driverForDSN infers the storage driver from the DSN scheme.
func driverForDSN(dsn string) (string, bool) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, true
	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, "libsql://"), strings.HasSuffix(dsn, ".db"):
		return DriverSQLite, true
	default:
		return "", false
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	if _, err := shortcode.New(c.ShortCode.Alphabet, c.ShortCode.Length); err != nil {
		return fmt.Errorf("%w: short_code: %w", ErrInvalidConfig, err)
	}

	if c.ShortCode.Length > maxShortCodeLength {
		return fmt.Errorf("%w: short_code.length must be at most %d", ErrInvalidConfig, maxShortCodeLength)
	}

	if c.ShortCode.MaxAttempts < 1 {
		return fmt.Errorf("%w: short_code.max_attempts must be at least 1", ErrInvalidConfig)
	}

	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	case DriverSQLite:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.Clicks.Mode {
	case ClicksSync, ClicksAsync:
	default:
		return fmt.Errorf("%w: unknown clicks.mode %q", ErrInvalidConfig, c.Clicks.Mode)
	}

	if c.Cache.Enabled && c.Cache.RedisURL == "" {
		return fmt.Errorf("%w: cache.redis_url is required when cache is enabled", ErrInvalidConfig)
	}

	if c.HTTPServer.Port < 1 || c.HTTPServer.Port > 65535 {
		return fmt.Errorf("%w: http_server.port out of range: %d", ErrInvalidConfig, c.HTTPServer.Port)
	}

	return nil
}

// DatabaseDSN returns the connection string for the configured driver.
// For postgres the CA file from the postgres section is added when the DSN
// does not name one, and a root certificate raises a disabled or empty
// sslmode to verify-full as in Postgres.DSN.
func (c *Config) DatabaseDSN() string {
	if c.Storage.Driver != DriverPostgres {
		return c.Storage.DSN
	}

	if c.Storage.DSN == "" {
		return c.Postgres.DSN()
	}

	if c.Postgres.SSLRootCert == "" {
		return c.Storage.DSN
	}

	u, err := url.Parse(c.Storage.DSN)
	if err != nil {
		return c.Storage.DSN
	}

	q := u.Query()
	if q.Get("sslrootcert") == "" {
		q.Set("sslrootcert", c.Postgres.SSLRootCert)
		u.RawQuery = q.Encode()
	}

	if mode := q.Get("sslmode"); q.Get("sslrootcert") != "" && (mode == "" || mode == "disable") {
		q.Set("sslmode", "verify-full")
		u.RawQuery = q.Encode()
	}

	return u.String()
}
