package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stsarena/arena/internal/catalog"
	"github.com/stsarena/arena/internal/generate"
	"github.com/stsarena/arena/internal/models"
	"github.com/stsarena/arena/internal/output"
	"github.com/stsarena/arena/internal/store"
)

var loadoutCmd = &cobra.Command{
	Use:     "loadout",
	Aliases: []string{"l"},
	Short:   "Manage arena loadouts",
}

var loadoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved loadouts, favorites first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		loadouts, err := s.ListLoadouts(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(loadouts) == 0 {
			ui.Info("no loadouts yet; create one with 'arena loadout random' or 'arena loadout import'")
			return nil
		}

		table := ui.Table([]string{"ID", "NAME", "CLASS", "ASC", "HP", "DECK", "RELICS", "FAV"})
		for _, l := range loadouts {
			fav := ""
			if l.Favorite {
				fav = "★"
			}
			table.Append([]string{
				shortID(l.ID),
				l.Name,
				string(l.CharacterClass),
				fmt.Sprintf("%d", l.AscensionLevel),
				fmt.Sprintf("%d/%d", l.CurrentHP, l.MaxHP),
				fmt.Sprintf("%d", len(l.Deck)),
				fmt.Sprintf("%d", len(l.Relics)),
				fav,
			})
		}
		return table.Render()
	},
}

var loadoutShowCmd = &cobra.Command{
	Use:   "show <loadout>",
	Short: "Show a loadout's full deck, relics, and potions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		l, err := resolveLoadout(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		ui.Info("%s (%s, ascension %d, %d/%d HP, hash %s)",
			output.Cyan(l.Name), l.CharacterClass, l.AscensionLevel, l.CurrentHP, l.MaxHP, l.ContentHash)

		table := ui.Table([]string{"CARD", "UPGRADES"})
		for _, c := range l.Deck {
			table.Append([]string{c.ID, fmt.Sprintf("%d", c.Upgrades)})
		}
		if err := table.Render(); err != nil {
			return err
		}

		relics := make([]string, len(l.Relics))
		for i, r := range l.Relics {
			relics[i] = r.ID
		}
		ui.Info("relics: %s", strings.Join(relics, ", "))
		if len(l.Potions) > 0 {
			ui.Info("potions: %s", strings.Join(l.Potions, ", "))
		}
		return nil
	},
}

var loadoutRenameCmd = &cobra.Command{
	Use:   "rename <loadout> <new-name>",
	Short: "Rename a loadout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		l, err := resolveLoadout(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		ok, err := s.RenameLoadout(cmd.Context(), l.ID, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("loadout not found: %s", args[0])
		}
		ui.Success("renamed %s to %q", shortID(l.ID), args[1])
		return nil
	},
}

var loadoutFavoriteCmd = &cobra.Command{
	Use:     "favorite <loadout>",
	Aliases: []string{"fav"},
	Short:   "Toggle a loadout's favorite flag",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		l, err := resolveLoadout(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		fav, err := s.ToggleFavorite(cmd.Context(), l.ID)
		if err != nil {
			return err
		}
		if fav {
			ui.Success("%s is now a favorite", l.Name)
		} else {
			ui.Success("%s is no longer a favorite", l.Name)
		}
		return nil
	},
}

var loadoutDeleteCmd = &cobra.Command{
	Use:   "delete <loadout>",
	Short: "Delete a loadout and all of its run records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		ui.DryRun, _ = cmd.Flags().GetBool("dry-run")
		return deleteLoadout(cmd.Context(), s, args[0])
	},
}

func deleteLoadout(ctx context.Context, s store.Store, ref string) error {
	l, err := resolveLoadout(ctx, s, ref)
	if err != nil {
		return err
	}
	if ui.DryRun {
		ui.DryRunMsg("would delete %q and its run history", l.Name)
		return nil
	}
	ok, err := s.DeleteLoadout(ctx, l.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("loadout not found: %s", ref)
	}
	ui.Success("deleted %s and its run history", l.Name)
	return nil
}

var loadoutRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Generate and save a random loadout",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		g := generate.New(time.Now().UnixNano())
		class := g.Class()
		if flag, _ := cmd.Flags().GetString("class"); flag != "" {
			class = models.CharacterClass(strings.ToUpper(flag))
		}

		l, err := g.Loadout(class)
		if err != nil {
			return err
		}
		if err := catalog.Validate(l); err != nil {
			return err
		}
		if err := s.SaveLoadout(cmd.Context(), l); err != nil {
			return err
		}
		ui.Success("created %q (%s): %d cards, %d relics, %d potions",
			l.Name, l.CharacterClass, len(l.Deck), len(l.Relics), len(l.Potions))
		ui.VerboseLog("id %s hash %s", l.ID, l.ContentHash)
		return nil
	},
}

var loadoutExportCmd = &cobra.Command{
	Use:   "export <loadout> <file>",
	Short: "Export a loadout to a YAML file for sharing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		l, err := resolveLoadout(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}

		// Exported loadouts carry no identity; importing creates a new one.
		export := *l
		export.ID = ""
		export.Favorite = false

		data, err := yaml.Marshal(&export)
		if err != nil {
			return fmt.Errorf("marshal loadout: %w", err)
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", args[1], err)
		}
		ui.Success("exported %s to %s", l.Name, args[1])
		return nil
	},
}

var loadoutImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a loadout from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		l := &models.Loadout{}
		if err := yaml.Unmarshal(data, l); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		l.ID = ""
		if err := catalog.Validate(l); err != nil {
			return err
		}
		if err := s.SaveLoadout(cmd.Context(), l); err != nil {
			return err
		}
		ui.Success("imported %q (%s) as %s", l.Name, l.CharacterClass, shortID(l.ID))
		return nil
	},
}

func init() {
	loadoutListCmd.Flags().Int("limit", 0, "Maximum loadouts to list")
	loadoutDeleteCmd.Flags().Bool("dry-run", false, "Show what would be deleted without deleting")
	loadoutRandomCmd.Flags().String("class", "", "Character class: IRONCLAD, THE_SILENT, DEFECT, WATCHER (default random)")

	loadoutCmd.AddCommand(loadoutListCmd, loadoutShowCmd, loadoutRenameCmd,
		loadoutFavoriteCmd, loadoutDeleteCmd, loadoutRandomCmd,
		loadoutExportCmd, loadoutImportCmd)
	rootCmd.AddCommand(loadoutCmd)
}

// resolveLoadout finds a loadout by full id, exact name, or unique id prefix.
func resolveLoadout(ctx context.Context, s store.Store, ref string) (*models.Loadout, error) {
	if l, err := s.GetLoadout(ctx, ref); err == nil {
		return l, nil
	}

	loadouts, err := s.ListLoadouts(ctx, 0)
	if err != nil {
		return nil, err
	}

	upper := strings.ToUpper(ref)
	var matches []*models.Loadout
	for _, l := range loadouts {
		if l.Name == ref {
			return l, nil
		}
		if strings.HasPrefix(l.ID, upper) {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("loadout not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous loadout %q: matches %d loadouts", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
