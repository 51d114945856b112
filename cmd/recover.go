package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stsarena/arena/internal/isolation"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore the real save after an interrupted arena session",
	Long: `Check for a leftover isolation marker from a process that died while an
arena session held the save file, and restore the backed-up save to its
live path. Safe to run when there is nothing to recover.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := savePath()
		if err != nil {
			return err
		}

		mgr := isolation.NewManager(path, logger)
		hadMarker := isolation.NewMarkerFile(path + isolation.MarkerSuffix).Exists()
		if err := mgr.RecoverOnStartup(); err != nil {
			return err
		}

		if hadMarker {
			ui.Success("restored %s from its session backup", path)
		} else {
			ui.Info("nothing to recover; %s was not held by a session", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
