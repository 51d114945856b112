package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stsarena/arena/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate win/loss statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		summary, err := s.SummaryStats(cmd.Context())
		if err != nil {
			return err
		}
		ui.Info("all time: %d runs, %d wins (%d perfect), %d losses, win rate %s",
			summary.TotalRuns, summary.Wins, summary.PerfectWins, summary.Losses,
			output.WinRateColor(summary.WinRate()))

		rows, err := s.LoadoutEncounterStats(cmd.Context())
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		table := ui.Table([]string{"LOADOUT", "CLASS", "ENCOUNTER", "RUNS", "WINS", "LOSSES", "PERFECT", "WIN RATE"})
		for _, r := range rows {
			table.Append([]string{
				r.LoadoutName,
				string(r.CharacterClass),
				r.EncounterID,
				fmt.Sprintf("%d", r.TotalRuns),
				fmt.Sprintf("%d", r.Wins),
				fmt.Sprintf("%d", r.Losses),
				fmt.Sprintf("%d", r.PerfectWins),
				output.WinRateColor(r.WinRate()),
			})
		}
		return table.Render()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
