package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rlayton/cellflow/internal/config"
	"github.com/rlayton/cellflow/internal/logging"
	"github.com/rlayton/cellflow/internal/server"
)

var demoSeed bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cellflow server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&demoSeed, "demo-seed", false, "pre-populate a handful of cells on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, flagViper)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if demoSeed {
		cfg.DemoSeed = true
	}

	log, err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, log)
	return srv.Run(ctx)
}
