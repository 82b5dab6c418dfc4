// Package config provides configuration types and defaults for implbridge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/implbridge/internal/log"
)

// Config holds all configuration options for implbridge.
type Config struct {
	DocRoot string          `mapstructure:"doc_root"` // rustdoc output directory (holds implementors/)
	Bridge  BridgeConfig    `mapstructure:"bridge"`
	Watch   WatchConfig     `mapstructure:"watch"`
	Render  RenderConfig    `mapstructure:"render"`
	Store   StoreConfig     `mapstructure:"store"`
	Tracing TracingConfig   `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// BridgeConfig controls how pages hand tables to the index.
type BridgeConfig struct {
	// PendingPolicy decides what a page keeps while no consumer is attached.
	// Valid values: "overwrite" (default), "queue"
	PendingPolicy string `mapstructure:"pending_policy"`

	// Attach decides when the index consumer is attached during a load.
	// "early" attaches before any fragment is submitted, "late" after all of
	// them have been (the buffered path). Default: "late"
	Attach string `mapstructure:"attach"`
}

// WatchConfig holds file watcher options.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// RenderConfig holds page rendering options.
type RenderConfig struct {
	Format         string        `mapstructure:"format"`          // text (default), markdown, pretty, ansi, json
	Width          int           `mapstructure:"width"`           // wrap width, default 100
	MarkdownStyle  string        `mapstructure:"markdown_style"`  // glamour style for "pretty"
	HighlightStyle string        `mapstructure:"highlight_style"` // chroma style for "ansi"
	NoColor        bool          `mapstructure:"no_color"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// StoreConfig holds index persistence options.
type StoreConfig struct {
	// Path of the SQLite database. Default: ~/.config/implbridge/index.db
	Path string `mapstructure:"path"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled"`
	// Exporter specifies the trace export backend: "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`
	// FilePath is the output path for the file exporter.
	FilePath string `mapstructure:"file_path"`
	// OTLPEndpoint is the collector address for the otlp exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultConfigDir returns ~/.config/implbridge, or "" when the home
// directory is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "implbridge")
}

// DefaultStorePath returns the default SQLite database location.
func DefaultStorePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return "index.db"
	}
	return filepath.Join(dir, "index.db")
}

// DefaultTracesFilePath returns the default trace output file.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return "traces.jsonl"
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DocRoot: "",
		Bridge: BridgeConfig{
			PendingPolicy: "overwrite",
			Attach:        "late",
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Render: RenderConfig{
			Format:         "text",
			Width:          100,
			MarkdownStyle:  "dark",
			HighlightStyle: "monokai",
			CacheTTL:       10 * time.Minute,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks every section.
func Validate(cfg Config) error {
	if err := ValidateBridge(cfg.Bridge); err != nil {
		return err
	}
	if err := ValidateWatch(cfg.Watch); err != nil {
		return err
	}
	if err := ValidateRender(cfg.Render); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateBridge checks bridge.pending_policy and bridge.attach.
// Empty values fall back to defaults and are valid.
func ValidateBridge(b BridgeConfig) error {
	switch b.PendingPolicy {
	case "", "overwrite", "queue":
	default:
		return fmt.Errorf("bridge.pending_policy must be \"overwrite\" or \"queue\", got %q", b.PendingPolicy)
	}
	switch b.Attach {
	case "", "early", "late":
	default:
		return fmt.Errorf("bridge.attach must be \"early\" or \"late\", got %q", b.Attach)
	}
	return nil
}

// ValidateWatch checks watch.debounce.
func ValidateWatch(w WatchConfig) error {
	if w.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", w.Debounce)
	}
	return nil
}

// ValidateRender checks render options.
func ValidateRender(r RenderConfig) error {
	switch r.Format {
	case "", "text", "markdown", "pretty", "ansi", "json":
	default:
		return fmt.Errorf("render.format must be one of text, markdown, pretty, ansi, json, got %q", r.Format)
	}
	if r.Width < 0 {
		return fmt.Errorf("render.width must not be negative, got %d", r.Width)
	}
	if r.CacheTTL < 0 {
		return fmt.Errorf("render.cache_ttl must not be negative, got %s", r.CacheTTL)
	}
	return nil
}

// ValidateTracing checks tracing configuration values.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter when tracing is on.
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# implbridge configuration

# rustdoc output directory, the one holding implementors/ (default: ./target/doc)
# doc_root: ./target/doc

# Registration bridge between fragment loads and the implementors index
bridge:
  # What a page keeps while the index is not attached yet:
  #   overwrite - only the latest table (default, matches the generated pages)
  #   queue     - every table, delivered in order on attach
  pending_policy: overwrite
  # When the index attaches during scan: early or late (default)
  attach: late

# Fragment watcher
watch:
  debounce: 250ms

# Page rendering
render:
  format: text            # text, markdown, pretty, ansi, json
  width: 100
  markdown_style: dark    # glamour style used by "pretty"
  highlight_style: monokai  # chroma style used by "ansi"
  no_color: false
  cache_ttl: 10m

# Index persistence (used by 'scan' when the persist-index flag is on)
# store:
#   path: ~/.config/implbridge/index.db

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/implbridge/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

# Feature flags
# flags:
#   persist-index: false
#   render-cache: true
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
