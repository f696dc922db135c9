package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Judge modes.
const (
	JudgeRemote = "remote"
	JudgeLocal  = "local"
)

// Environment overrides.
const (
	EnvJudgeURL    = "CODEQUEST_JUDGE_URL"
	EnvJudgeMode   = "CODEQUEST_JUDGE_MODE"
	EnvProgressURL = "CODEQUEST_PROGRESS_URL"
	EnvLogLevel    = "CODEQUEST_LOG_LEVEL"
	EnvDB          = "CODEQUEST_DB"
	EnvJudgeSecret = "CODEQUEST_JUDGE_SECRET"
	EnvLevelsDir   = "CODEQUEST_LEVELS_DIR"
)

// Load reads the configuration.
// Search order: customPath -> ~/.codequest/config.yaml -> ./configs/codequest.yaml -> embedded default.
// A .env file in the working directory is loaded first; environment
// variables override file values.
func Load(customPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlUnmarshalDefault(&cfg); err != nil {
		cfg = DefaultConfig() // Fallback to hardcoded if embed fails
	}

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		cfg.Source = customPath
	} else {
		for _, p := range []string{userConfigPath("config.yaml"), filepath.Join("configs", "codequest.yaml")} {
			if p == "" {
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", p, err)
			}
			cfg.Source = p
			break
		}
	}

	ApplyEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides config values from environment variables.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Judge.URL, EnvJudgeURL)
	set(&cfg.Judge.Mode, EnvJudgeMode)
	set(&cfg.Progress.URL, EnvProgressURL)
	set(&cfg.Log.Level, EnvLogLevel)
	set(&cfg.Storage.DBPath, EnvDB)
	set(&cfg.Serve.JudgeSecret, EnvJudgeSecret)
	set(&cfg.Levels.Dir, EnvLevelsDir)

	if getenv(EnvProgressURL) != "" {
		cfg.Progress.Enabled = true
	}
}

// Validate checks enumerated values, fills defaults for zero values and
// expands ~ in paths.
func (c *Config) Validate() error {
	def := DefaultConfig()

	switch c.Judge.Mode {
	case "":
		c.Judge.Mode = def.Judge.Mode
	case JudgeRemote, JudgeLocal:
	default:
		return fmt.Errorf("invalid judge mode %q", c.Judge.Mode)
	}
	if c.Judge.Mode == JudgeRemote && strings.TrimSpace(c.Judge.URL) == "" {
		return errors.New("judge url is required in remote mode")
	}
	if c.Judge.Language == "" {
		c.Judge.Language = def.Judge.Language
	}
	if c.Judge.TimeLimitMs <= 0 {
		c.Judge.TimeLimitMs = def.Judge.TimeLimitMs
	}
	if c.Judge.MemoryLimitMB <= 0 {
		c.Judge.MemoryLimitMB = def.Judge.MemoryLimitMB
	}
	if c.Judge.TimeoutS <= 0 {
		c.Judge.TimeoutS = def.Judge.TimeoutS
	}

	if c.Progress.Enabled && strings.TrimSpace(c.Progress.URL) == "" {
		return errors.New("progress url is required when progress is enabled")
	}

	if c.Grid.CellSize <= 0 {
		c.Grid.CellSize = def.Grid.CellSize
	}
	if c.Movement.CellsPerSecond < 0 {
		return fmt.Errorf("invalid cells per second %v", c.Movement.CellsPerSecond)
	}
	if c.Movement.CommandGapMs < 0 || c.Movement.WaitUnitMs < 0 {
		return errors.New("movement timings must not be negative")
	}

	if c.Session.GoalTolerance <= 0 || c.Session.GoalTolerance > 1 {
		return fmt.Errorf("invalid goal tolerance %v (want 0 < t <= 1)", c.Session.GoalTolerance)
	}
	if c.Session.StarTimeThresholdS <= 0 {
		c.Session.StarTimeThresholdS = def.Session.StarTimeThresholdS
	}
	if c.Session.TickRate <= 0 {
		c.Session.TickRate = def.Session.TickRate
	}

	preset, err := ParseAssist(c.Hints.Assist)
	if err != nil {
		return err
	}
	c.Hints.Assist = string(preset)

	switch strings.ToLower(c.Log.Level) {
	case "":
		c.Log.Level = def.Log.Level
	case "debug", "info", "warn", "error":
		c.Log.Level = strings.ToLower(c.Log.Level)
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	c.Storage.DBPath = ExpandHome(c.Storage.DBPath)
	c.Log.Path = ExpandHome(c.Log.Path)
	c.Levels.Dir = ExpandHome(c.Levels.Dir)
	c.Auth.TokenFile = ExpandHome(c.Auth.TokenFile)
	c.Serve.HostKeyPath = ExpandHome(c.Serve.HostKeyPath)
	return nil
}

// Assist returns the parsed assist preset.
func (c Config) Assist() AssistPreset {
	p, err := ParseAssist(c.Hints.Assist)
	if err != nil {
		return AssistStandard
	}
	return p
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codequest", filename)
}
