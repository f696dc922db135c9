// codequest is a programming puzzle game: write a small program that
// walks a robot to the goal, in the terminal or over SSH.
//
// Usage:
//
//	codequest                    - Pick a level interactively
//	codequest list               - List levels and your ratings
//	codequest play [level]       - Play, optionally starting at a level
//	codequest run <level> <file> - Judge and simulate a solution headlessly
//	codequest stats [level]      - Show local history
//	codequest login [token]      - Store a backend token
//	codequest serve              - Host codequest over SSH
//	codequest judge              - Run a development judge server
//
// Global flags:
//
//	--config <path>  - Config file (default: ~/.codequest/config.yaml)
//	--token <jwt>    - Backend token, overrides $CODEQUEST_TOKEN and the token file
//	--db <path>      - History database
//	--offline        - Do not talk to the progress backend
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagToken   string
	flagDBPath  string
	flagLevels  string
	flagLog     string
	flagOffline bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "codequest",
	Short: "CodeQuest - program a robot through grid puzzles",
	Long: `CodeQuest is a puzzle game played with code. Each level is a small grid
with a start and a goal; you write a program using Player.moveRight(n),
moveLeft, moveUp, moveDown and wait(n), and watch the robot run it.

Failed attempts unlock hints and, eventually, the reference solution.
Completions are rated with up to three stars and kept in a local history;
with a token they are also reported to the progress backend.

Examples:
  codequest
  codequest play 1-2
  codequest run 1-1 solution.java
  codequest stats
  codequest serve --ssh :2222`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPlay,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to config file")
	pf.StringVar(&flagToken, "token", "", "Backend token (JWT)")
	pf.StringVar(&flagDBPath, "db", "", "Path to history database (overrides config)")
	pf.StringVar(&flagLevels, "levels", "", "Extra directory of level files")
	pf.StringVar(&flagLog, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&flagOffline, "offline", false, "Do not use the progress backend")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(judgeCmd)
}

// exitError carries a process exit code.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func exitCode(err error) int {
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 1
}
