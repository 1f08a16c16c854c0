// Package config loads CLI and server configuration from .cdi.yaml, the
// environment and .env files.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used for config, schema and export files.
var AppFs = afero.NewOsFs()

// FileName is the config file name without extension.
const FileName = ".cdi"

// Config holds the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Schema    SchemaConfig    `mapstructure:"schema"`
	Server    ServerConfig    `mapstructure:"server"`
	Export    ExportConfig    `mapstructure:"export"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// DatabaseConfig holds connection settings. URL wins over the individual fields.
type DatabaseConfig struct {
	Provider       string `mapstructure:"provider"`
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdleTime    int    `mapstructure:"max_idle_time"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
}

// SchemaConfig points at an optional schema file.
type SchemaConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ExportConfig configures CSV export.
type ExportConfig struct {
	Dir      string `mapstructure:"dir"`
	Filename string `mapstructure:"filename"`
	Storage  string `mapstructure:"storage"`
}

// TelemetryConfig selects the telemetry adapter.
type TelemetryConfig struct {
	Type string `mapstructure:"type"`
}

// LogConfig configures the debug logger.
type LogConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	Format  string `mapstructure:"format"`
}

// Options control where LoadConfig looks.
type Options struct {
	// ConfigFile is an explicit config path. It must exist when set.
	ConfigFile string

	// Dir is the working directory searched for .cdi.yaml and .env files.
	Dir string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.provider", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "cdii")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.max_idle_time", 300)
	v.SetDefault("database.connect_timeout", 10)

	v.SetDefault("schema.path", "")

	v.SetDefault("server.addr", "127.0.0.1:8501")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.filename", "filtered_data.csv")
	v.SetDefault("export.storage", "filesystem")

	v.SetDefault("telemetry.type", "prometheus")

	v.SetDefault("log.verbose", false)
	v.SetDefault("log.format", "text")
}

// LoadConfig loads configuration from various sources
func LoadConfig(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	loadDotEnv(dir)

	v := viper.New()
	v.SetFs(AppFs)
	setDefaults(v)

	v.SetEnvPrefix("CDI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "cdi"))
		}

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if envURL := os.Getenv("DATABASE_URL"); envURL != "" {
		cfg.Database.URL = envURL
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env and then .env.local, which takes priority.
func loadDotEnv(dir string) {
	env := filepath.Join(dir, ".env")
	if _, err := AppFs.Stat(env); err == nil {
		_ = godotenv.Load(env)
	}

	local := filepath.Join(dir, ".env.local")
	if _, err := AppFs.Stat(local); err == nil {
		_ = godotenv.Overload(local)
	}
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Schema.Path, &c.Export.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// ConnectionURL returns the configured URL, or composes one from the
// individual connection fields.
func (d DatabaseConfig) ConnectionURL() string {
	if d.URL != "" {
		return d.URL
	}

	switch d.Provider {
	case "sqlite", "duckdb":
		return d.Name
	case "mysql":
		u := url.URL{
			Scheme: "mysql",
			User:   userInfo(d.User, d.Password),
			Host:   hostPort(d.Host, d.Port, 3306),
			Path:   "/" + d.Name,
		}
		return u.String()
	default:
		u := url.URL{
			Scheme: "postgres",
			User:   userInfo(d.User, d.Password),
			Host:   hostPort(d.Host, d.Port, 5432),
			Path:   "/" + d.Name,
		}
		if d.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
		}
		return u.String()
	}
}

func userInfo(user, password string) *url.Userinfo {
	if password == "" {
		return url.User(user)
	}
	return url.UserPassword(user, password)
}

func hostPort(host string, port, fallback int) string {
	if port == 0 {
		port = fallback
	}
	return host + ":" + strconv.Itoa(port)
}

// SaveConfig writes a starter config file to path.
func SaveConfig(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)

	v.Set("database.provider", cfg.Database.Provider)
	v.Set("database.url", cfg.Database.URL)
	v.Set("database.host", cfg.Database.Host)
	v.Set("database.port", cfg.Database.Port)
	v.Set("database.user", cfg.Database.User)
	v.Set("database.name", cfg.Database.Name)
	v.Set("schema.path", cfg.Schema.Path)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("export.dir", cfg.Export.Dir)
	v.Set("export.filename", cfg.Export.Filename)
	v.Set("telemetry.type", cfg.Telemetry.Type)

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return v.WriteConfigAs(path)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}
