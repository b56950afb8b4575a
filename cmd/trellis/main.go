package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toyz/trellis/internal/config"
	"github.com/toyz/trellis/internal/diagnostics"
	"github.com/toyz/trellis/internal/logging"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Version: version,
		Use:     "trellis",
		Short:   "Declarative route registration for gin, echo, fiber and chi",
		Long: `trellis builds a routing tree from route, endpoint and static
declarations and serves it on the configured HTTP engine.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			logging.Setup(cmd.ErrOrStderr(), cfg.Env, cfg.Log.Level)
			cmd.SetContext(config.WithContext(cmd.Context(), cfg))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (default: ./trellis.yaml)")
	flags.String("env", "dev", "environment: dev, prod, test (env: TRELLIS_ENV)")
	flags.String("log-level", "info", "log level: debug, info, warn, error (env: TRELLIS_LOG_LEVEL)")
	flags.String("diagnostics", "info", "registration output: silent, error, warn, info, verbose (env: TRELLIS_LOG_DIAGNOSTICS)")
	flags.String("static-path", "/", "URL path of the static site (env: TRELLIS_STATIC_PATH)")
	flags.String("static-dir", "", "directory of the static site, empty to disable (env: TRELLIS_STATIC_DIR)")

	root.AddCommand(newServeCmd(), newRoutesCmd())
	return root
}

// newConsole creates the registration diagnostics console for cfg.
func newConsole(cmd *cobra.Command, cfg *config.Config) (*diagnostics.Console, error) {
	level, err := diagnostics.ParseLevel(cfg.Log.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("diagnostics level: %w", err)
	}
	return diagnostics.New(level, diagnostics.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())), nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
