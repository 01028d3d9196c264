package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bandproj/bandproj/internal/runner"
	"github.com/bandproj/bandproj/pkg/config"
	"github.com/bandproj/bandproj/pkg/logger"
	"github.com/bandproj/bandproj/pkg/report"
	"github.com/bandproj/bandproj/pkg/state"
)

func newProcessCmd() *cobra.Command {
	var noState bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the projector pipeline once",
		Long: `Load the configured band data, select the energy window of every
projector group, orthogonalize the projectors and persist the window
metadata and electron counts to the run-state store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(noState)
		},
	}

	cmd.Flags().BoolVar(&noState, "no-state", false, "skip run-state persistence and parameter auditing")

	return cmd
}

func runProcess(noState bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := getConfigPath()
	cfg, err := config.NewManager().LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.CreateLogger("", verbosity)
	rep := report.NewLogReporter(log, coordinator)

	var store *state.Store
	if !noState {
		store = state.NewStore(projectRoot, log)
	}

	printInfo(fmt.Sprintf("Processing %d projector group(s)", len(cfg.Groups)))

	r := runner.New(cfg, configPath, projectRoot, log, rep, store, coordinator)
	results, err := r.Run(ctx)
	if err != nil {
		printError(fmt.Sprintf("Pipeline failed: %v", err))
		return err
	}

	for _, res := range results {
		printInfo(fmt.Sprintf("%s: bands [%d, %d], width %d, %.4f electrons in window",
			res.Name, res.IBMin, res.IBMax, res.NBMax, res.Nelect))
	}
	printSuccess("Pipeline complete")

	return nil
}
