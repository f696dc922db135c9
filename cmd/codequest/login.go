package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/codequest/internal/auth"
)

var flagLoginShow bool

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Store the progress backend token",
	Long: `Saves the bearer token used for the progress backend and a remote judge.
Without an argument the token is read from the terminal without echo.

Examples:
  codequest login eyJhbGciOi...
  codequest login
  codequest login --show`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&flagLoginShow, "show", false, "Show the token in use instead of storing one")
}

func runLogin(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if flagLoginShow {
		t, err := auth.Discover(flagToken, cfg.Auth.TokenFile)
		if errors.Is(err, auth.ErrNoToken) {
			fmt.Println("Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (from %s).\n", t.Who(), t.Source)
		if !t.Claims.ExpiresAt.IsZero() {
			state := "expires"
			if t.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Printf("Token %s %s.\n", state, t.Claims.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	}

	raw := ""
	if len(args) == 1 {
		raw = args[0]
	} else {
		raw, err = promptToken()
		if err != nil {
			return err
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("empty token")
	}

	who := "unknown user"
	if claims, err := auth.Inspect(raw); err == nil {
		if claims.Name != "" {
			who = claims.Name
		} else if claims.Email != "" {
			who = claims.Email
		}
		if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now()) {
			return errors.New("token has already expired")
		}
	}

	if err := auth.Save(cfg.Auth.TokenFile, raw); err != nil {
		return err
	}
	fmt.Printf("Token saved for %s.\n", who)
	return nil
}

func promptToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("cannot read token: %w", err)
		}
		return line, nil
	}

	fmt.Print("Token: ")
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("cannot read token: %w", err)
	}
	return string(b), nil
}
