package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/codequest/internal/config"
	"github.com/vovakirdan/codequest/internal/logging"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be generated at ~/.codequest/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23235",
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer serves codequest over SSH. Every session gets its own level
// session; the level catalog, the judge and the history store are shared.
type SSHServer struct {
	config  SSHServerConfig
	env     Env
	server  *ssh.Server
	players *PlayerRegistry
	logger  *log.Logger
}

// NewSSHServer creates an SSH server. The environment's Remote client is
// not used: a backend token belongs to one player, not to the server.
func NewSSHServer(cfg SSHServerConfig, env Env) (*SSHServer, error) {
	logger := env.Logger
	if logger == nil {
		logger = logging.New(os.Stderr, "info", "codequest-ssh")
	}
	env.Logger = logger
	env.Remote = nil

	// Levels are loaded once up front; sessions only read the catalog.
	if _, err := env.Catalog.LoadAll(); err != nil {
		return nil, fmt.Errorf("cannot load levels: %w", err)
	}

	srv := &SSHServer{
		config:  cfg,
		env:     env,
		players: NewPlayerRegistry(),
		logger:  logger,
	}

	hostKeyPath := config.ExpandHome(cfg.HostKeyPath)
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".codequest", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler creates the app for one SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	env := s.env
	env.Player = sess.User()
	env.Logger = s.logger.With("user", sess.User())

	model, err := NewAppModel(env, "", pty.Window.Width, pty.Window.Height)
	if err != nil {
		s.logger.Error("cannot start session", "user", sess.User(), "error", err)
		return nil, nil
	}
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs sessions and keeps the player registry current.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		remote := sess.RemoteAddr().String()
		id := s.players.Join(sess.User(), remote, time.Now())
		s.logger.Info("session started", "user", sess.User(), "remote", remote, "online", s.players.Count())

		next(sess)

		s.players.Leave(id)
		s.logger.Info("session ended", "user", sess.User(), "remote", remote, "online", s.players.Count())
	}
}

// ListenAndServe starts the SSH server and blocks until SIGINT or SIGTERM.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("ssh server: %w", err)
	case <-done:
	}
	s.logger.Info("shutting down...", "online", s.players.Count())
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// Players returns the connected sessions.
func (s *SSHServer) Players() []Player {
	return s.players.Players()
}
