package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stsarena/arena/internal/models"
	"github.com/stsarena/arena/internal/output"
	"github.com/stsarena/arena/internal/stats"
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"history"},
	Short:   "Show completed arena runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		loadoutRef, _ := cmd.Flags().GetString("loadout")

		var runs []*models.RunRecord
		if loadoutRef != "" {
			l, err := resolveLoadout(cmd.Context(), s, loadoutRef)
			if err != nil {
				return err
			}
			runs, err = s.ListRunsForLoadout(cmd.Context(), l.ID, limit)
			if err != nil {
				return err
			}
		} else {
			runs, err = s.ListRecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
		}

		if len(runs) == 0 {
			ui.Info("no completed runs yet")
			return nil
		}

		table := ui.Table([]string{"WHEN", "ENCOUNTER", "OUTCOME", "TURNS", "DMG DEALT", "DMG TAKEN", "POTIONS"})
		for _, r := range runs {
			table.Append([]string{
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.EncounterID,
				output.OutcomeColor(string(r.Outcome), r.Perfect),
				fmt.Sprintf("%d", r.TurnsTaken),
				fmt.Sprintf("%d", r.DamageDealt),
				fmt.Sprintf("%d", r.DamageTaken),
				strings.Join(r.PotionsUsed, ", "),
			})
		}
		return table.Render()
	},
}

var bestCmd = &cobra.Command{
	Use:   "best <loadout> <encounter>",
	Short: "Show the Pareto-optimal victories for a loadout against an encounter",
	Long: `Show the victories not beaten by any other victory when jointly
minimizing damage taken and potions used.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		l, err := resolveLoadout(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		wins, err := s.VictoriesFor(cmd.Context(), l.ID, args[1])
		if err != nil {
			return err
		}
		frontier := stats.ParetoVictories(wins)
		if len(frontier) == 0 {
			ui.Info("no victories for %s against %s yet", l.Name, args[1])
			return nil
		}

		table := ui.Table([]string{"WHEN", "DMG TAKEN", "POTIONS", "TURNS", "PERFECT"})
		for _, r := range frontier {
			perfect := ""
			if r.Perfect {
				perfect = "★"
			}
			table.Append([]string{
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", r.DamageTaken),
				fmt.Sprintf("%d", len(r.PotionsUsed)),
				fmt.Sprintf("%d", r.TurnsTaken),
				perfect,
			})
		}
		return table.Render()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "Maximum runs to show")
	runsCmd.Flags().String("loadout", "", "Restrict to one loadout (id, prefix, or name)")

	rootCmd.AddCommand(runsCmd, bestCmd)
}
