package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/codequest/internal/auth"
	"github.com/vovakirdan/codequest/internal/config"
	"github.com/vovakirdan/codequest/internal/judge"
	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/logging"
	"github.com/vovakirdan/codequest/internal/platform/tui"
	"github.com/vovakirdan/codequest/internal/progress"
	"github.com/vovakirdan/codequest/internal/session"
	"github.com/vovakirdan/codequest/internal/storage"
)

// app holds everything a command needs, built from config and flags.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	catalog *level.Catalog
	gateway judge.Gateway
	store   *storage.Store
	remote  *progress.Client
	token   auth.Token

	closers []io.Closer
}

// wireOptions select which parts of the app a command needs.
type wireOptions struct {
	// logToStderr is used by commands that do not take over the terminal.
	logToStderr bool
	noStore     bool
	noRemote    bool
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = config.ExpandHome(flagDBPath)
		cfg.Storage.Enabled = true
	}
	if flagLevels != "" {
		cfg.Levels.Dir = config.ExpandHome(flagLevels)
	}
	if flagLog != "" {
		cfg.Log.Level = flagLog
	}
	return cfg, nil
}

func wire(opts wireOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	switch {
	case opts.logToStderr:
		a.logger = logging.New(os.Stderr, cfg.Log.Level, "codequest")
	case cfg.Log.Path != "":
		l, c, err := logging.OpenFile(cfg.Log.Path, cfg.Log.Level, "codequest")
		if err != nil {
			return nil, err
		}
		a.logger = l
		a.closers = append(a.closers, c)
	default:
		a.logger = logging.Discard()
	}
	a.logger.Debug("config loaded", "source", cfg.Source)

	a.catalog = level.NewCatalog(cfg.Levels.Dir)
	if _, err := a.catalog.LoadAll(); err != nil {
		a.Close()
		return nil, err
	}
	for _, skipped := range a.catalog.Skipped {
		a.logger.Warn("level skipped", "reason", skipped)
	}

	a.token, err = auth.Discover(flagToken, cfg.Auth.TokenFile)
	switch {
	case errors.Is(err, auth.ErrNoToken):
	case err != nil:
		a.logger.Warn("cannot read token", "error", err)
	case a.token.Expired(time.Now()):
		a.logger.Warn("token expired", "who", a.token.Who())
	}

	a.gateway = a.newGateway()

	if cfg.Storage.Enabled && !opts.noStore {
		store, err := storage.Open(cfg.Storage.DBPath)
		if err != nil {
			a.logger.Warn("local history disabled", "error", err)
		} else {
			a.store = store
			a.closers = append(a.closers, store)
		}
	}

	if cfg.Progress.Enabled && !opts.noRemote && !flagOffline {
		if a.token.Raw == "" {
			a.logger.Warn("progress backend enabled but no token; run codequest login")
		} else {
			a.remote = progress.NewClient(cfg.Progress.URL, a.token.Raw,
				progress.WithTimeout(10*time.Second),
				progress.WithLogger(a.logger.WithPrefix("progress")),
			)
		}
	}
	return a, nil
}

func (a *app) newGateway() judge.Gateway {
	if a.cfg.Judge.Mode == config.JudgeRemote {
		return judge.NewClient(a.cfg.Judge.URL,
			judge.WithAuthToken(a.token.Raw),
			judge.WithTimeout(a.cfg.JudgeTimeout()),
			judge.WithLimits(a.cfg.Judge.Language, a.cfg.TimeLimit(), a.cfg.Judge.MemoryLimitMB),
			judge.WithLogger(a.logger.WithPrefix("judge")),
		)
	}
	return judge.NewLocal(judge.WithLocalLogger(a.logger.WithPrefix("judge")))
}

// sessionOptions translates the config into simulation options.
func (a *app) sessionOptions() session.Options {
	cfg := a.cfg
	return session.Options{
		CellSize:          cfg.Grid.CellSize,
		GoalTolerance:     cfg.Session.GoalTolerance,
		CellDuration:      cfg.CellDuration(),
		CommandGap:        cfg.CommandGap(),
		WaitUnit:          cfg.WaitUnit(),
		StarTimeThreshold: cfg.StarTimeThreshold(),
		ScaleAttempts:     cfg.Assist().ScaleThreshold,
		Language:          cfg.Judge.Language,
		TimeLimit:         cfg.TimeLimit(),
		MemoryLimitMB:     cfg.Judge.MemoryLimitMB,
	}
}

func (a *app) savers() []session.ProgressSaver {
	var s []session.ProgressSaver
	if a.store != nil {
		s = append(s, a.store)
	}
	if a.remote != nil {
		s = append(s, a.remote)
	}
	return s
}

func (a *app) tuiEnv() tui.Env {
	env := tui.Env{
		Catalog:      a.catalog,
		Gateway:      a.gateway,
		Store:        a.store,
		Remote:       a.remote,
		Options:      a.sessionOptions(),
		TickInterval: a.cfg.TickInterval(),
		Logger:       a.logger,
	}
	if a.token.Raw != "" {
		env.Player = a.token.Who()
	}
	return env
}

// Close releases the store and the log file, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close:", err)
		}
	}
	a.closers = nil
}
