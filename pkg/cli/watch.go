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
	"github.com/bandproj/bandproj/pkg/types"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run the pipeline whenever the configuration changes",
		Long: `Run the projector pipeline once, then keep watching the configuration
file and re-run on every change. Useful while tuning energy windows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
}

func runWatch() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := getConfigPath()
	log := logger.CreateLogger("", verbosity)
	rep := report.NewLogReporter(log, coordinator)
	store := state.NewStore(projectRoot, log)

	run := func(cfg *types.Config) {
		r := runner.New(cfg, configPath, projectRoot, log, rep, store, coordinator)
		if _, err := r.Run(ctx); err != nil {
			printError(fmt.Sprintf("Pipeline failed: %v", err))
			return
		}
		printSuccess("Pipeline complete")
	}

	cfg, err := config.NewManager().LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	run(cfg)

	reload := config.NewReloadManager(configPath, log)
	reload.AddCallback(func(cfg *types.Config, err error) {
		if err != nil {
			printError(fmt.Sprintf("Configuration reload failed: %v", err))
			return
		}
		printInfo("Configuration changed, re-running pipeline")
		run(cfg)
	})

	if err := reload.StartWatching(); err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	defer reload.StopWatching()

	printInfo(fmt.Sprintf("Watching %s (ctrl-c to stop)", configPath))
	<-ctx.Done()

	return nil
}
