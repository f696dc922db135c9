package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/codequest/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host codequest over SSH",
	Long: `Start an SSH server where every connection gets the level picker.

All players share the judge configured for this server and its history
database. The progress backend is not used over SSH.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise uses serve.host_key_path from the config, generated on first start

Examples:
  codequest serve
  codequest serve --ssh :2222 --db ./server.db

Players connect with:
  ssh -p 2222 localhost`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Disconnect idle sessions after this long")
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := wire(wireOptions{logToStderr: true, noRemote: true})
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := tui.DefaultSSHServerConfig()
	if a.cfg.Serve.SSHAddr != "" {
		cfg.Address = a.cfg.Serve.SSHAddr
	}
	if flagSSHAddr != "" {
		cfg.Address = flagSSHAddr
	}
	cfg.HostKeyPath = a.cfg.Serve.HostKeyPath
	if flagHostKey != "" {
		cfg.HostKeyPath = flagHostKey
	}
	if d := a.cfg.IdleTimeout(); d > 0 {
		cfg.IdleTimeout = d
	}
	if flagIdleTimeout > 0 {
		cfg.IdleTimeout = flagIdleTimeout
	}

	env := a.tuiEnv()
	env.Logger = a.logger.WithPrefix("ssh")
	server, err := tui.NewSSHServer(cfg, env)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Serving codequest over SSH on %s (judge: %s)\n", server.Addr(), a.cfg.Judge.Mode)
	fmt.Println("Press Ctrl+C to stop")
	return server.ListenAndServe()
}
