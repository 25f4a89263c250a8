package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/portalcore/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load(missing) = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[graph]
hidden_nodes = ["program", "project"]
row_size = 4

[layout]
engine = "neato"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl_hours = 2

[explorer]
anchor_field = "disease_phase"
anchor_tabs = ["demographic", "tumor_assessments"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Graph.HiddenNodes, []string{"program", "project"}) || cfg.Graph.RowSize != 4 {
		t.Errorf("graph = %+v", cfg.Graph)
	}
	if cfg.Layout.Engine != "neato" || cfg.Layout.CanvasSize != 5 {
		t.Errorf("layout = %+v, want engine override and default canvas", cfg.Layout)
	}
	if cfg.Cache.TTL() != 2*time.Hour {
		t.Errorf("ttl = %v", cfg.Cache.TTL())
	}
	if cfg.Explorer.DataType != "subject" || cfg.Explorer.AnchorField != "disease_phase" {
		t.Errorf("explorer = %+v", cfg.Explorer)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":        `[graph`,
		"backend":       "[cache]\nbackend = \"memcached\"",
		"redis address": "[cache]\nbackend = \"redis\"",
		"row size":      "[graph]\nrow_size = -1",
		"hidden id":     "[graph]\nhidden_nodes = [\"a.b\"]",
		"label chars":   "[layout]\nmax_label_chars = 0",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", AppName, "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
}

func TestServerDurations(t *testing.T) {
	s := Default().Server
	if s.ReadTimeout() != 30*time.Second || s.WriteTimeout() != time.Minute || s.SessionTTL() != time.Hour {
		t.Errorf("durations = %v %v %v", s.ReadTimeout(), s.WriteTimeout(), s.SessionTTL())
	}
}
