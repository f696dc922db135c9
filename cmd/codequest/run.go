package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/codequest/internal/session"
)

var (
	flagRunVerbose bool
	flagRunTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <level> <file|->",
	Short: "Judge and simulate a solution without the TUI",
	Long: `Submits the program in file (or stdin for "-") to the judge, simulates
the robot and prints what happens. The simulation runs as fast as
possible; the reported time is simulated time.

A completion is saved like in the game. The exit status is 0 when the
goal was reached and 2 when it was not.

Examples:
  codequest run 1-1 solution.java
  echo 'Player.moveRight(5);' | codequest run 1-1 -`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&flagRunVerbose, "verbose", "v", false, "Print every command as it starts")
	runCmd.Flags().DurationVar(&flagRunTimeout, "timeout", time.Minute, "Give up after this much wall time")
}

func runRun(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[1], cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := wire(wireOptions{logToStderr: true})
	if err != nil {
		return err
	}
	defer a.Close()

	lvl, err := a.catalog.ByID(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, flagRunTimeout)
	defer cancel()

	out := cmd.OutOrStdout()
	ctrl := session.New(session.Deps{
		Gateway: a.gateway,
		Savers:  a.savers(),
		Logger:  a.logger,
		Sink:    session.SinkFunc(func(evt session.Event) { printEvent(out, evt) }),
	}, a.sessionOptions())

	if err := ctrl.Load(lvl); err != nil {
		return err
	}
	if _, err := ctrl.Run(ctx, src); err != nil {
		return err
	}

	if err := simulate(ctx, ctrl, a.cfg.TickInterval()); err != nil {
		return err
	}
	if ctrl.State() != session.StateSucceeded {
		return &exitError{code: 2, msg: "goal not reached"}
	}
	return nil
}

// simulate ticks ctrl until the run is over and every save has returned.
// While commands execute, simulated time advances by step per tick with
// no wall-clock wait. Judge and save calls are polled with zero-length
// ticks so they do not count towards the level time.
func simulate(ctx context.Context, ctrl *session.Controller, step time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run aborted: %w", err)
		}
		if _, total := ctrl.Progress(); ctrl.State() == session.StateExecuting && total > 0 {
			ctrl.Tick(step)
			continue
		}

		ctrl.Tick(0)
		if ctrl.Idle() {
			return nil
		}
		if _, total := ctrl.Progress(); total > 0 {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(10 * time.Millisecond):
		}
	}
}

var lineStyles = map[session.Level]lipgloss.Style{
	session.LevelInfo:     lipgloss.NewStyle(),
	session.LevelProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	session.LevelWarn:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	session.LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	session.LevelSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
}

func printEvent(w io.Writer, evt session.Event) {
	for _, line := range session.Describe(evt) {
		if line.Level == session.LevelProgress && !flagRunVerbose {
			continue
		}
		fmt.Fprintln(w, lineStyles[line.Level].Render(line.Text))
	}
}

func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("cannot read source: %w", err)
	}
	return string(data), nil
}
