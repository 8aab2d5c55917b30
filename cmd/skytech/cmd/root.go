package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose      bool
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "skytech",
	Short: "skytech - SKY130 technology configuration and artifact repair",
	Long: `skytech generates the normalized technology descriptor for the SKY130
process from the installed vendor libraries, and repairs known defects in the
vendor netlist, simulation-model, and LEF artifacts before downstream
physical-design tools consume them.

Examples:
  skytech gen-config -s settings.yml -o tech.json   # Build the descriptor and patch artifacts
  skytech patch -s settings.yml                     # Run the artifact patch engine alone
  skytech srams                                     # List the bundled SRAM macro catalog
  skytech hooks innovus -s settings.yml             # Show the hooks registered for a tool`,
	Version: "0.3.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "settings.yml", "path to the YAML settings file")
}

// newLogger builds the CLI logger; --verbose enables debug output.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}
