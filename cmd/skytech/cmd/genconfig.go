package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siliconsmith/skytech/pkg/patch"
	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

var (
	outputPath string
	cacheDir   string
	skipPatch  bool
)

var genConfigCmd = &cobra.Command{
	Use:   "gen-config",
	Short: "Generate the technology descriptor and patch vendor artifacts",
	Long: `gen-config scans the installed vendor libraries for characterization
corners, assembles the technology descriptor for the selected standard-cell
family, and then regenerates the corrected cache copies of the vendor
netlist, simulation-model, and LEF artifacts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := settings.LoadYAML(settingsPath)
		if err != nil {
			return err
		}

		desc, err := tech.NewBuilder(store, log).GenConfig()
		if err != nil {
			return fmt.Errorf("descriptor generation failed: %w", err)
		}

		data, err := json.MarshalIndent(desc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize descriptor: %w", err)
		}
		data = append(data, '\n')
		if outputPath == "" || outputPath == "-" {
			if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
		} else if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write descriptor: %w", err)
		}

		if skipPatch {
			return nil
		}
		if err := patch.NewEngine(store, cacheDir, log).PostInstall(); err != nil {
			return fmt.Errorf("artifact patching failed: %w", err)
		}
		return nil
	},
}

func init() {
	genConfigCmd.Flags().StringVarP(&outputPath, "output", "o", "-", "descriptor output path (- for stdout)")
	genConfigCmd.Flags().StringVar(&cacheDir, "cache-dir", "cache", "directory for patched artifact copies")
	genConfigCmd.Flags().BoolVar(&skipPatch, "skip-patch", false, "generate the descriptor without patching artifacts")
	rootCmd.AddCommand(genConfigCmd)
}
