package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bandproj/bandproj/pkg/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := getConfigPath()

			cfg, err := config.NewManager().LoadConfig(configPath)
			if err != nil {
				printError(fmt.Sprintf("Configuration invalid: %v", err))
				return err
			}

			printSuccess(fmt.Sprintf("Configuration valid: %d shell(s), %d group(s)",
				len(cfg.Shells), len(cfg.Groups)))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bandproj v%s\n", version)
		},
	}
}
