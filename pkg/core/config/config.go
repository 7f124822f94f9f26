// Package config loads service configuration with priority env > file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"mommydata/pkg/core/store"
)

// DefaultPath is where the optional YAML config file is looked up.
const DefaultPath = "config/mommydata.yaml"

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Data          DataConfig          `yaml:"data"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=postgres sqlite memory"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Driver postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
}

// DSN is the connection string for the configured driver.
func (s StoreConfig) DSN() string {
	if s.Driver == store.DriverPostgres {
		return s.DatabaseURL
	}
	return s.SQLitePath
}

type DataConfig struct {
	ReferenceYear int `yaml:"reference_year" validate:"gte=1990,lte=2100"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Driver:     store.DriverSQLite,
			SQLitePath: defaultSQLitePath(),
		},
		Data:          DataConfig{ReferenceYear: 2023},
		Logging:       LoggingConfig{Level: "info", JSON: true},
		Observability: ObservabilityConfig{ServiceName: "mommydata"},
	}
}

// defaultSQLitePath prefers a mounted /data volume.
func defaultSQLitePath() string {
	if fi, err := os.Stat("/data"); err == nil && fi.IsDir() {
		return filepath.Join("/data", "mommydata.db")
	}
	return "mommydata.db"
}

// Load reads .env (if any), the YAML file at path (if it exists) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("MOMMYDATA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MOMMYDATA_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = v
		// A DSN on its own selects postgres unless a driver is named.
		if os.Getenv("MOMMYDATA_STORE") == "" {
			cfg.Store.Driver = store.DriverPostgres
		}
	}
	if v := os.Getenv("MOMMYDATA_STORE"); v != "" {
		cfg.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("MOMMYDATA_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("MOMMYDATA_REFERENCE_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MOMMYDATA_REFERENCE_YEAR: %w", err)
		}
		cfg.Data.ReferenceYear = year
	}
	if v := os.Getenv("MOMMYDATA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MOMMYDATA_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MOMMYDATA_LOG_JSON: %w", err)
		}
		cfg.Logging.JSON = b
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}
