package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseBBox(t *testing.T) {
	bbox, err := ParseBBox("")
	if err != nil || bbox != nil {
		t.Errorf("empty string should give no bbox, got %v, %v", bbox, err)
	}

	bbox, err = ParseBBox("7.409,43.724,7.44,43.752")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bbox.MinLon != 7.409 || bbox.MaxLat != 43.752 {
		t.Errorf("bbox = %+v", bbox)
	}

	if _, err := ParseBBox("1,2,3"); err == nil {
		t.Error("expected error for three values")
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ConnectionString(); strings.Contains(got, "password") {
		t.Errorf("empty password should be omitted: %s", got)
	}
	cfg.DBPassword = "secret"
	if got := cfg.ConnectionString(); !strings.HasSuffix(got, "password=secret") {
		t.Errorf("connection string = %s", got)
	}
}

func TestTable(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Table("areas"); got != "osmshapes_areas" {
		t.Errorf("Table() = %q", got)
	}
	cfg.TablePrefix = ""
	if got := cfg.Table("areas"); got != "areas" {
		t.Errorf("Table() without prefix = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no workers", func(c *Config) { c.Workers = 0 }, true},
		{"zero extent", func(c *Config) { c.SmallExtent = 0 }, true},
		{"empty viewport", func(c *Config) { c.ViewHeight = 0 }, true},
		{"no retries", func(c *Config) { c.OverpassRetries = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := DefaultConfig().ValidateInput(); err == nil {
		t.Error("ValidateInput should require an input file")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "osmshapes.yaml")
	data := "listen_addr: \":9090\"\nworkers: 3\noverpass_timeout: 45s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OSMSHAPES_DB_HOST", "db.internal")

	base := DefaultConfig()
	base.DBName = "fromflags"

	cfg, err := Load(path, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":9090" || cfg.Workers != 3 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.OverpassTimeout != 45*time.Second {
		t.Errorf("overpass timeout = %v", cfg.OverpassTimeout)
	}
	if cfg.DBHost != "db.internal" {
		t.Errorf("env override not applied, db host = %q", cfg.DBHost)
	}
	if cfg.DBName != "fromflags" {
		t.Errorf("base value lost, db name = %q", cfg.DBName)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected error for missing config file")
	}
}
