package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/implbridge/internal/app"
	"github.com/zjrosen/implbridge/internal/config"
	"github.com/zjrosen/implbridge/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot race the watch view's input loop.
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".implbridge/config.yaml"

var (
	version     = "dev"
	cfgFile     string
	debugFlag   bool
	cfg         config.Config
	logCleanups []func()
)

var rootCmd = &cobra.Command{
	Use:   "implbridge",
	Short: "Load and query rustdoc implementor fragments",
	Long: `implbridge loads the implementors fragments rustdoc writes under
<doc root>/implementors and merges them into a cross-trait index.

Each trait page gets a registration bridge: a fragment loaded before the
index is ready is held by its page and delivered when the index attaches.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		for _, cleanup := range logCleanups {
			cleanup()
		}
		logCleanups = nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .implbridge/config.yaml, then ~/.config/implbridge/config.yaml)")
	rootCmd.PersistentFlags().StringP("doc-root", "d", "",
		"rustdoc output directory (default: ./target/doc)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging (or set IMPLBRIDGE_DEBUG)")

	_ = viper.BindPFlag("doc_root", rootCmd.PersistentFlags().Lookup("doc-root"))
}

func setDefaults(v *viper.Viper) {
	defaults := config.Defaults()
	v.SetDefault("bridge.pending_policy", defaults.Bridge.PendingPolicy)
	v.SetDefault("bridge.attach", defaults.Bridge.Attach)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("render.format", defaults.Render.Format)
	v.SetDefault("render.width", defaults.Render.Width)
	v.SetDefault("render.markdown_style", defaults.Render.MarkdownStyle)
	v.SetDefault("render.highlight_style", defaults.Render.HighlightStyle)
	v.SetDefault("render.no_color", defaults.Render.NoColor)
	v.SetDefault("render.cache_ttl", defaults.Render.CacheTTL)
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .implbridge/config.yaml (current directory)
		// 2. ~/.config/implbridge/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else if dir := config.DefaultConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)
}

// configPath is where config writes go: the file that was loaded, or the
// project-local default.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used
		}
	}
	return localConfigPath
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if !debugFlag && os.Getenv("IMPLBRIDGE_DEBUG") == "" {
		return nil
	}

	logPath := os.Getenv("IMPLBRIDGE_LOG")
	if cmd == watchCmd {
		// The watch view owns the terminal.
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "implbridge")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanups = append(logCleanups, cleanup)
		return nil
	}

	if logPath == "" {
		log.InitWriter(os.Stderr, log.LevelDebug)
		return nil
	}
	cleanup, err := log.Init(filepath.Clean(logPath))
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanups = append(logCleanups, cleanup)
	return nil
}

// newApp builds the runtime from the loaded config.
func newApp() (*app.App, error) {
	return app.New(cfg)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
