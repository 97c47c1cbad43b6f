/*
Package cli implements the aigateway commands.

	aigateway serve              run the HTTP and websocket API
	aigateway ask <question>     ask once from the terminal
	aigateway status             show endpoint and model availability
	aigateway version            print build information

Every command reads the same optional config file (--config or
AIGW_CONFIG) and logs through zerolog at --log-level (AIGW_LOG_LEVEL).
*/
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"aigateway/internal/config"
)

// BuildInfo is stamped by the linker in main.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	build      BuildInfo
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewRootCmd assembles the command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	opts := &options{build: build}
	root := &cobra.Command{
		Use:   "aigateway",
		Short: "AI query gateway for the course platform assistant",
		Long: `aigateway answers platform users' questions through a local inference
server (Ollama). It discovers the server among candidate addresses, checks
that the required model is installed, routes chart requests to analytics,
and falls back to canned replies whenever inference is unavailable.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", build.Version, build.Commit, build.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("AIGW_CONFIG"), "Config file (.yaml, .json or .toml)")
	pf.StringVar(&opts.logLevel, "log-level", envOr("AIGW_LOG_LEVEL", config.DefaultLogLevel), "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "auto", "Log format: auto, console or json")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newAskCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newVersionCmd(opts))
	return root
}

// loadConfig reads the config file when one is given and applies defaults.
// The --log-level flag wins over the file when set explicitly.
func (o *options) loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = o.logLevel
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (o *options) logger(w io.Writer, level string) (zerolog.Logger, error) {
	return newLogger(w, level, o.logFormat)
}
