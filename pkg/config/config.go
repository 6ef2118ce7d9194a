package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "config.yaml"

// Store drivers.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for menu-etl.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DataDir holds the intermediate files passed between stages.
	DataDir string `yaml:"data_dir" env:"MENU_DATA_DIR" env-default:"data"`

	Collector CollectorConfig `yaml:"collector"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Redis     RedisConfig     `yaml:"redis"`
}

// CollectorConfig controls the single page fetch.
type CollectorConfig struct {
	URL       string        `yaml:"url" env:"COLLECTOR_URL" env-default:"https://www.chick-fil-a.com/menu/sides"`
	UserAgent string        `yaml:"user_agent" env:"COLLECTOR_USER_AGENT" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"`
	Timeout   time.Duration `yaml:"timeout" env:"COLLECTOR_TIMEOUT" env-default:"30s"`
}

// LLMConfig holds the completion endpoint used by the structurer.
type LLMConfig struct {
	Provider      string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL       string        `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model         string        `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey        string        `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	MaxInputChars int           `yaml:"max_input_chars" env:"LLM_MAX_INPUT_CHARS" env-default:"4000"`
	MaxTokens     int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
	Timeout       time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"120s"`
}

// StoreConfig selects and locates the remote menu table.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"supabase"`

	// Supabase coordinates. Both are required for the supabase driver.
	SupabaseURL string `yaml:"supabase_url" env:"SUPABASE_URL" env-default:""`
	SupabaseKey string `yaml:"-" env:"SUPABASE_KEY"` // Secret - not in YAML

	Database DatabaseConfig `yaml:"database"`

	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"data/menu.db"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:""`
	Port     int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"PGDATABASE" env-default:"postgres"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"require"`
}

// DashboardConfig controls the dashboard server.
type DashboardConfig struct {
	BindAddr          string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port              string        `yaml:"port" env:"PORT" env-default:"8501"`
	CacheTTL          time.Duration `yaml:"cache_ttl" env:"DASHBOARD_CACHE_TTL" env-default:"1h"`
	HistogramBinWidth int           `yaml:"histogram_bin_width" env:"DASHBOARD_HISTOGRAM_BIN_WIDTH" env-default:"50"`
	SessionKey        string        `yaml:"-" env:"DASHBOARD_SESSION_KEY"` // Secret - not in YAML
}

// RedisConfig locates an optional Redis shared by dashboard processes.
// An empty Host disables it.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads configuration from path (if it exists) with environment variable
// overrides. A .env file in the working directory is loaded into the
// environment first; variables already set are not overwritten.
func Load(version string, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.applyDocker(IsRunningInDocker())

	return cfg, nil
}

// validate checks enumerated settings. Missing store coordinates are not an
// error here: the dashboard reports them to the user instead of failing.
func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	switch c.Store.Driver {
	case DriverSupabase, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.LLM.MaxInputChars <= 0 {
		return fmt.Errorf("llm max_input_chars must be positive")
	}
	if c.Dashboard.HistogramBinWidth <= 0 {
		return fmt.Errorf("dashboard histogram_bin_width must be positive")
	}
	return nil
}

// RawTextPath is where the collector writes and the structurer reads.
func (c *Config) RawTextPath() string {
	return filepath.Join(c.DataDir, "raw_blob.txt")
}

// MenuDataPath is where the structurer writes and the loader reads.
func (c *Config) MenuDataPath() string {
	return filepath.Join(c.DataDir, "menu_data.json")
}

// ListenAddr returns the dashboard listen address.
func (c *DashboardConfig) ListenAddr() string {
	return net.JoinHostPort(c.BindAddr, c.Port)
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// IsConfigured reports whether the coordinates for the selected driver are present.
func (c *StoreConfig) IsConfigured() bool {
	switch c.Driver {
	case DriverSupabase:
		return c.SupabaseURL != "" && c.SupabaseKey != ""
	case DriverPostgres:
		return c.Database.Host != ""
	case DriverSQLite:
		return c.SQLitePath != ""
	}
	return false
}
