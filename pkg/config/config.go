package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Catalog CatalogConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTCORE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"CARTCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARTCORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Driver      string `envconfig:"CARTCORE_STORAGE_DRIVER" default:"sqlite"`
	Path        string `envconfig:"CARTCORE_STORAGE_PATH" default:"cartcore.db"`
	SnapshotKey string `envconfig:"CARTCORE_STORAGE_SNAPSHOT_KEY" default:"cart:active"`
}

type CatalogConfig struct {
	ProductsFile string `envconfig:"CARTCORE_CATALOG_PRODUCTS_FILE"`
	RulesFile    string `envconfig:"CARTCORE_CATALOG_RULES_FILE"`
}

func (s *StorageConfig) validate() error {
	driver := strings.TrimSpace(strings.ToLower(s.Driver))
	if driver == "" {
		driver = StorageDriverSQLite
	}
	if driver != StorageDriverSQLite && driver != StorageDriverMemory {
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
	s.Driver = driver
	if driver == StorageDriverSQLite && strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("storage path is required for the sqlite driver")
	}
	if strings.TrimSpace(s.SnapshotKey) == "" {
		return fmt.Errorf("snapshot key must not be empty")
	}
	return nil
}
