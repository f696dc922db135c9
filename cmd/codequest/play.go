package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/codequest/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play [level]",
	Short: "Play in the terminal",
	Long: `Opens the level picker, or goes straight to the given level.

Keys while playing:
  ctrl+r  run the program      ctrl+t  reset the robot
  ctrl+o  use the solution     ctrl+n  next level (after completing)
  tab     editor/console       esc     back to the level list

Examples:
  codequest play
  codequest play 2-1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func runPlay(_ *cobra.Command, args []string) error {
	a, err := wire(wireOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	start := ""
	if len(args) == 1 {
		start = args[0]
		if _, err := a.catalog.ByID(start); err != nil {
			return err
		}
	}

	a.logger.Info("starting tui", "level", start, "judge", a.cfg.Judge.Mode, "remote", a.remote != nil)
	return tui.Run(a.tuiEnv(), start)
}
