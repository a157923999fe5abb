package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != AppEnvDev {
		t.Fatalf("expected App.Env to default to dev, got %q", cfg.App.Env)
	}
	if cfg.Storage.Driver != StorageDriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.SnapshotKey != "cart:active" {
		t.Fatalf("unexpected snapshot key %q", cfg.Storage.SnapshotKey)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CARTCORE_APP_ENV", "prod")
	t.Setenv("CARTCORE_STORAGE_DRIVER", "MEMORY")
	t.Setenv("CARTCORE_CATALOG_PRODUCTS_FILE", "fixtures/products.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env, got %q", cfg.App.Env)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Fatalf("expected normalized memory driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Catalog.ProductsFile != "fixtures/products.json" {
		t.Fatalf("unexpected products file %q", cfg.Catalog.ProductsFile)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("CARTCORE_STORAGE_DRIVER", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported storage driver to return an error")
	}
}

func TestLoad_RejectsEmptySnapshotKey(t *testing.T) {
	t.Setenv("CARTCORE_STORAGE_SNAPSHOT_KEY", "   ")
	if _, err := Load(); err == nil {
		t.Fatal("expected blank snapshot key to return an error")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
