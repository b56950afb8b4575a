package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/toyz/trellis/internal/app"
	"github.com/toyz/trellis/internal/config"
	"github.com/toyz/trellis/internal/diagnostics"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the mount table",
		Long:  `Register the application's routes without serving them and print every method, path and static mount.`,
		Args:  cobra.NoArgs,
		RunE:  runRoutes,
	}
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	console, err := newConsole(cmd, cfg)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	// only problems, the table is the output
	quiet := diagnostics.New(min(console.Level(), diagnostics.Warn),
		diagnostics.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()))

	root, _, err := a.Build(quiet)
	if err != nil {
		quiet.Error(err)
		return err
	}

	console.RouteTable(root.Routes())
	return nil
}
