package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siliconsmith/skytech/pkg/hooks"
	"github.com/siliconsmith/skytech/pkg/settings"
	"github.com/siliconsmith/skytech/pkg/tech"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks <tool>",
	Short: "List the lifecycle hooks registered for a downstream tool",
	Long: `hooks builds the technology descriptor and prints the ordered list of
lifecycle hooks registered for one downstream tool (innovus, calibre,
pegasus, klayout), each with its target step and insertion position.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		tool, err := hooks.ParseTool(args[0])
		if err != nil {
			return err
		}

		store, err := settings.LoadYAML(settingsPath)
		if err != nil {
			return err
		}
		desc, err := tech.NewBuilder(store, log).GenConfig()
		if err != nil {
			return fmt.Errorf("descriptor generation failed: %w", err)
		}
		registry, err := hooks.NewRegistry(desc, store, log)
		if err != nil {
			return fmt.Errorf("hook registration failed: %w", err)
		}

		for _, h := range registry.ForTool(tool) {
			fmt.Printf("%-4s %-24s %s\n", h.Position, h.Step, h.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}
