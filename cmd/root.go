package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/config"
	"github.com/example/tablebook/internal/logging"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tablebook",
		Short:         "Book restaurant tables from a plain-language request by driving the booking site in a browser",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newBookCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newServeCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Log), nil
}
