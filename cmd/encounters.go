package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stsarena/arena/internal/catalog"
)

var encountersCmd = &cobra.Command{
	Use:   "encounters",
	Short: "List fightable encounters",
	RunE: func(cmd *cobra.Command, args []string) error {
		act, _ := cmd.Flags().GetInt("act")
		kind, _ := cmd.Flags().GetString("kind")

		table := ui.Table([]string{"ENCOUNTER", "ACT", "KIND"})
		shown := 0
		for _, e := range catalog.Encounters {
			if act != 0 && e.Act != act {
				continue
			}
			if kind != "" && string(e.Kind) != kind {
				continue
			}
			table.Append([]string{e.ID, fmt.Sprintf("%d", e.Act), string(e.Kind)})
			shown++
		}
		if shown == 0 {
			ui.Warning("no encounters match act=%d kind=%q", act, kind)
			return nil
		}
		return table.Render()
	},
}

func init() {
	encountersCmd.Flags().Int("act", 0, "Filter by act (1-4)")
	encountersCmd.Flags().String("kind", "", "Filter by kind: normal, elite, boss")
	rootCmd.AddCommand(encountersCmd)
}
