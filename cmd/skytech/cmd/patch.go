package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siliconsmith/skytech/pkg/patch"
	"github.com/siliconsmith/skytech/pkg/settings"
)

var patchCacheDir string

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Regenerate corrected cache copies of the vendor artifacts",
	Long: `patch runs the artifact patch engine alone: each job reads its pristine
vendor source and writes a corrected copy into the cache directory. Jobs are
independent, and re-running against an unmodified source is idempotent.`,
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
		if err := patch.NewEngine(store, patchCacheDir, log).PostInstall(); err != nil {
			return fmt.Errorf("artifact patching failed: %w", err)
		}
		return nil
	},
}

func init() {
	patchCmd.Flags().StringVar(&patchCacheDir, "cache-dir", "cache", "directory for patched artifact copies")
	rootCmd.AddCommand(patchCmd)
}
