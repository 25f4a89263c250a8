// Package config loads portalcore settings from a TOML file.
//
// A missing file is not an error: [Load] returns [Default] so that the
// CLI works without any setup. Values present in the file override the
// defaults field by field.
//
//	[graph]
//	hidden_nodes = ["program"]
//	create_all = false
//
//	[layout]
//	engine = "dot"
//	canvas_size = 5
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/portalcore/pkg/errors"
)

// AppName names the configuration and cache directories.
const AppName = "portalcore"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete configuration.
type Config struct {
	Graph    Graph    `toml:"graph"`
	Layout   Layout   `toml:"layout"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
	Explorer Explorer `toml:"explorer"`
}

// Graph controls how dictionaries become graphs.
type Graph struct {
	HiddenNodes []string `toml:"hidden_nodes"`
	CreateAll   bool     `toml:"create_all"`
	RowSize     int      `toml:"row_size"`
}

// Layout controls DOT geometry and the Graphviz engine.
type Layout struct {
	Engine        string  `toml:"engine"`
	CanvasSize    float64 `toml:"canvas_size"`
	Ratio         float64 `toml:"ratio"`
	NodeWidth     float64 `toml:"node_width"`
	NodeHeight    float64 `toml:"node_height"`
	MaxLabelChars int     `toml:"max_label_chars"`
}

// Cache selects where results are cached.
type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisURL  string `toml:"redis_url"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	TTLHours  int    `toml:"ttl_hours"`
}

// TTL returns the entry lifetime.
func (c Cache) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// Server configures the HTTP API.
type Server struct {
	Addr                string   `toml:"addr"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
	SessionTTLMinutes   int      `toml:"session_ttl_minutes"`
	AllowedConsortiums  []string `toml:"allowed_consortiums"`
}

// ReadTimeout returns the request read timeout.
func (s Server) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the response write timeout.
func (s Server) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// SessionTTL returns how long an idle workspace session lives.
func (s Server) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLMinutes) * time.Minute
}

// Explorer holds the data explorer's query settings.
type Explorer struct {
	DataType    string   `toml:"data_type"`
	AnchorField string   `toml:"anchor_field"`
	AnchorTabs  []string `toml:"anchor_tabs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Graph: Graph{
			HiddenNodes: []string{"program"},
		},
		Layout: Layout{
			Engine:        "dot",
			CanvasSize:    5,
			Ratio:         1,
			NodeWidth:     1.2,
			NodeHeight:    0.8,
			MaxLabelChars: 16,
		},
		Cache: Cache{
			Backend:  CacheFile,
			TTLHours: 24,
		},
		Server: Server{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
			SessionTTLMinutes:   60,
		},
		Explorer: Explorer{
			DataType: "subject",
		},
	}
}

// Path returns the default configuration file location,
// $XDG_CONFIG_HOME/portalcore/config.toml or ~/.config/portalcore/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the file at path on top of the defaults. An empty path
// means [Path]. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr or cache.redis_url is required for the redis backend")
	}
	if c.Cache.TTLHours < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl_hours must not be negative")
	}
	if c.Graph.RowSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "graph.row_size must not be negative")
	}
	if c.Layout.CanvasSize <= 0 || c.Layout.Ratio <= 0 || c.Layout.NodeWidth <= 0 || c.Layout.NodeHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout sizes must be positive")
	}
	if c.Layout.MaxLabelChars <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.max_label_chars must be positive")
	}
	if c.Server.SessionTTLMinutes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.session_ttl_minutes must be positive")
	}
	for _, id := range c.Graph.HiddenNodes {
		if err := errors.ValidateNodeID(id); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "graph.hidden_nodes")
		}
	}
	return nil
}
