package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/codequest/internal/session"
	"github.com/vovakirdan/codequest/internal/storage"
)

var flagStatsClear bool

var statsCmd = &cobra.Command{
	Use:   "stats [level]",
	Short: "Show local history",
	Long: `Without arguments, summarises every level. With a level id, shows its
best completions and most recent attempts.

Examples:
  codequest stats
  codequest stats 1-2
  codequest stats 1-2 --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&flagStatsClear, "clear", false, "Delete the history of the given level")
}

func runStats(_ *cobra.Command, args []string) error {
	a, err := wire(wireOptions{logToStderr: true, noRemote: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store == nil {
		return errors.New("local history is disabled")
	}
	if len(args) == 0 {
		if flagStatsClear {
			return errors.New("--clear needs a level id")
		}
		return printSummary(a)
	}

	lvl, err := a.catalog.ByID(args[0])
	if err != nil {
		return err
	}
	if flagStatsClear {
		if err := a.store.ClearLevel(lvl.ID); err != nil {
			return err
		}
		fmt.Printf("History of %s cleared.\n", lvl.ID)
		return nil
	}
	return printLevel(a.store, lvl.ID, lvl.Title())
}

func printSummary(a *app) error {
	all, err := a.store.AllLevelStats()
	if err != nil {
		return err
	}
	levels, err := a.catalog.LoadAll()
	if err != nil {
		return err
	}

	fmt.Printf("  %-6s  %-4s  %-6s  %6s  %5s  %5s\n", "Level", "Best", "Time", "Clears", "Runs", "Fails")
	fmt.Printf("  %-6s  %-4s  %-6s  %6s  %5s  %5s\n", "-----", "----", "----", "------", "----", "-----")
	solved, stars := 0, 0
	for _, l := range levels {
		best, bestTime := " -  ", "-"
		s, ok := all[l.ID]
		if !ok {
			s = &storage.LevelStats{}
		}
		if s.Completed() {
			best = session.StarString(s.BestStars) + " "
			bestTime = session.FormatElapsed(time.Duration(s.BestTime) * time.Second)
			solved++
			stars += s.BestStars
		}
		fmt.Printf("  %-6s  %s  %-6s  %6d  %5d  %5d\n", l.ID, best, bestTime, s.Completions, s.Attempts, s.Failures)
	}
	fmt.Println()
	fmt.Printf("Solved %d of %d levels, %d of %d stars.\n", solved, len(levels), stars, 3*len(levels))
	return nil
}

func printLevel(store *storage.Store, id, title string) error {
	fmt.Printf("%s  %s\n\n", id, title)

	best, err := store.Completions(id, 5)
	if err != nil {
		return err
	}
	if len(best) == 0 {
		fmt.Println("Not completed yet.")
	} else {
		fmt.Println("Best completions:")
		for i, c := range best {
			fmt.Printf("  #%d  %s  %s  %d failed, %d hint(s), %d line(s)  %s\n",
				i+1, session.StarString(c.Stars),
				session.FormatElapsed(time.Duration(c.CompletionSecs)*time.Second),
				c.FailedAttempts, c.HintsUsed, c.CodeLines,
				c.CreatedAt.Local().Format("Jan 02 15:04"))
		}
	}

	attempts, err := store.RecentAttempts(id, 10)
	if err != nil {
		return err
	}
	if len(attempts) > 0 {
		fmt.Println()
		fmt.Println("Recent attempts:")
		for _, at := range attempts {
			line := fmt.Sprintf("  %s  %-16s", at.CreatedAt.Local().Format("Jan 02 15:04:05"), at.Outcome)
			if at.Message != "" {
				line += "  " + at.Message
			}
			fmt.Println(line)
		}
	}
	return nil
}
