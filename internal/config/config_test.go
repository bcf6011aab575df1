package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSiteForHost(t *testing.T) {
	cfg := Default()
	cfg.Sites = map[string]SiteConfig{
		"crush":     {Hosts: []string{"crush.example.fr", "www.crush.example.fr"}},
		"cellar":    {Hosts: []string{"cellar.example.fr"}},
		"marketing": {Hosts: []string{"example.fr"}},
	}

	cases := []struct {
		host string
		want string
	}{
		{"crush.example.fr", "crush"},
		{"CRUSH.example.fr", "crush"},
		{"www.crush.example.fr", "crush"},
		{"crush.example.fr:8080", "crush"},
		{"cellar.example.fr", "cellar"},
		{"example.fr", "marketing"},
		{"unknown.example.org", "marketing"},
		{"10.0.0.1:8080", "marketing"},
	}
	for _, c := range cases {
		if got := cfg.SiteForHost(c.host); got != c.want {
			t.Errorf("SiteForHost(%q) = %q, want %q", c.host, got, c.want)
		}
	}
}

func TestValidateRejectsDuplicateHosts(t *testing.T) {
	cfg := Default()
	cfg.Sites = map[string]SiteConfig{
		"crush":     {Hosts: []string{"same.example.fr"}},
		"cellar":    {Hosts: []string{"same.example.fr"}},
		"marketing": {},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected duplicate host error")
	}
}

func TestValidateRequiresMarketingFallback(t *testing.T) {
	cfg := Default()
	cfg.Sites = map[string]SiteConfig{"crush": {}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing marketing error")
	}
}

func TestLoadFromPathLayersFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9999
sites:
  crush:
    hosts: [crush.test]
  marketing: {}
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.RateLimit.RequestsPerSecond != 20 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.SiteForHost("crush.test") != "crush" {
		t.Fatal("expected file-defined host mapping")
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env override, got %d", cfg.Server.Port)
	}
}
