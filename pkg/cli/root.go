// Package cli provides the command-line interface for bandproj
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	projectRoot string
	verbosity   string
	coordinator bool
	version     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bandproj",
	Short: "Post-process DFT band structures into orthonormal local projectors",
	Long: `bandproj builds orthogonalized local projector matrices from DFT
band-structure output for use in downstream many-body calculations.

It selects an energy window of bands, restricts the configured projector
shells to that window, and orthonormalizes the projectors per site or
jointly across a group via the Löwdin symmetric transform.`,

	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("bandproj v%s\n", version)
			return
		}
		// If no subcommand, show help
		cmd.Help()
	},
}

// Execute runs the CLI
func Execute(v string) error {
	version = v

	// Initialize the root command explicitly (avoiding init())
	initializeRootCommand()

	return rootCmd.Execute()
}

// initializeRootCommand sets up the root command and its flags.
func initializeRootCommand() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: bandproj.config.json)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root directory")
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&coordinator, "coordinator", true, "act as the coordinating process for reporting and persistence")

	rootCmd.Flags().Bool("version", false, "Print version information and quit")

	// Add subcommands
	rootCmd.AddCommand(newProcessCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in project root
		viper.AddConfigPath(projectRoot)
		viper.SetConfigName("bandproj.config")
		viper.SetConfigType("json")
	}

	viper.SetEnvPrefix("BANDPROJ")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// getConfigPath resolves the configuration file path from the flag or the
// default location under the project root.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(projectRoot, "bandproj.config.json")
}

func printInfo(message string) {
	fmt.Printf("%s %s\n", color.CyanString("[bandproj]"), message)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("[bandproj]"), message)
}

func printSuccess(message string) {
	fmt.Printf("%s %s\n", color.GreenString("[bandproj]"), message)
}
