package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siliconsmith/skytech/pkg/sram"
)

var sramsCmd = &cobra.Command{
	Use:   "srams",
	Short: "List the bundled SRAM macro catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		macros, err := sram.Macros()
		if err != nil {
			return err
		}
		for _, m := range macros {
			fmt.Printf("%s  %sx%d  mux %d  (%s)\n", m.Name, m.Depth, m.Width, m.Mux, m.Family)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sramsCmd)
}
