package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/codequest/internal/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all levels",
	Long: `Shows every level in play order with your best rating, from the local
history and, when logged in, the progress backend.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(_ *cobra.Command, _ []string) error {
	a, err := wire(wireOptions{logToStderr: true})
	if err != nil {
		return err
	}
	defer a.Close()

	levels, err := a.catalog.LoadAll()
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		fmt.Println("No levels available.")
		return nil
	}

	stars := make(map[string]int)
	if a.store != nil {
		all, err := a.store.AllLevelStats()
		if err != nil {
			a.logger.Warn("cannot read level stats", "error", err)
		}
		for id, s := range all {
			if s.Completed() {
				stars[id] = s.BestStars
			}
		}
	}
	if a.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		remote, err := a.remote.FetchChallenges(ctx)
		cancel()
		if err != nil {
			a.logger.Warn("remote progress unavailable", "error", err)
		}
		for id, p := range remote {
			if p.Completed {
				stars[id] = max(stars[id], p.Stars)
			}
		}
	}

	maxIDLen := 2
	for _, l := range levels {
		maxIDLen = max(maxIDLen, len(l.ID))
	}

	fmt.Printf("  %-*s  %-5s  %s\n", maxIDLen, "ID", "Best", "Title")
	fmt.Printf("  %-*s  %-5s  %s\n", maxIDLen, "--", "----", "-----")
	for _, l := range levels {
		best := "  -  "
		if s, ok := stars[l.ID]; ok {
			best = session.StarString(s) + "  "
		}
		fmt.Printf("  %-*s  %s  %s\n", maxIDLen, l.ID, best, l.Title())
	}

	fmt.Println()
	fmt.Println("Run 'codequest play <id>' to play a level.")
	return nil
}
