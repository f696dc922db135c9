// Package config provides YAML-based configuration loading for codequest.
package config

import "time"

// Config is the full client configuration.
type Config struct {
	Judge    JudgeConfig    `yaml:"judge"`
	Progress ProgressConfig `yaml:"progress"`
	Grid     GridConfig     `yaml:"grid"`
	Movement MovementConfig `yaml:"movement"`
	Session  SessionConfig  `yaml:"session"`
	Hints    HintsConfig    `yaml:"hints"`
	Storage  StorageConfig  `yaml:"storage"`
	Levels   LevelsConfig   `yaml:"levels"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Serve    ServeConfig    `yaml:"serve"`

	// Source is the file the config was read from, or "embedded".
	Source string `yaml:"-"`
}

// JudgeConfig selects and tunes the execution gateway.
type JudgeConfig struct {
	Mode          string `yaml:"mode"` // "remote" or "local"
	URL           string `yaml:"url"`
	Language      string `yaml:"language"`
	TimeLimitMs   int    `yaml:"time_limit_ms"`
	MemoryLimitMB int    `yaml:"memory_limit_mb"`
	TimeoutS      int    `yaml:"timeout_s"`
}

// ProgressConfig points at the gamification backend.
type ProgressConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"` // base URL, e.g. http://localhost:4000/api/v1
}

// GridConfig defines the board geometry.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// MovementConfig defines command timing.
type MovementConfig struct {
	CellsPerSecond float64 `yaml:"cells_per_second"`
	CommandGapMs   int     `yaml:"command_gap_ms"`
	WaitUnitMs     int     `yaml:"wait_unit_ms"`
}

// SessionConfig tunes the level session.
type SessionConfig struct {
	GoalTolerance      float64 `yaml:"goal_tolerance"` // in cells
	StarTimeThresholdS int     `yaml:"star_time_threshold_s"`
	TickRate           int     `yaml:"tick_rate"` // ticks per second
}

// HintsConfig selects the assist preset.
type HintsConfig struct {
	Assist string `yaml:"assist"`
}

// StorageConfig locates the local history database.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LevelsConfig adds a directory of level files on top of the built-in pack.
type LevelsConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// AuthConfig locates the bearer token file.
type AuthConfig struct {
	TokenFile string `yaml:"token_file"`
}

// ServeConfig configures the SSH server and the dev judge server.
type ServeConfig struct {
	SSHAddr      string `yaml:"ssh_addr"`
	HostKeyPath  string `yaml:"host_key_path"`
	IdleTimeoutS int    `yaml:"idle_timeout_s"`
	JudgeAddr    string `yaml:"judge_addr"`
	JudgeSecret  string `yaml:"judge_secret"`
}

// CellDuration is the time it takes to cross one cell.
func (c Config) CellDuration() time.Duration {
	if c.Movement.CellsPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.Movement.CellsPerSecond)
}

// CommandGap is the pause after each command.
func (c Config) CommandGap() time.Duration {
	return time.Duration(c.Movement.CommandGapMs) * time.Millisecond
}

// WaitUnit is the duration of one wait unit.
func (c Config) WaitUnit() time.Duration {
	return time.Duration(c.Movement.WaitUnitMs) * time.Millisecond
}

// JudgeTimeout bounds one judge round trip.
func (c Config) JudgeTimeout() time.Duration {
	return time.Duration(c.Judge.TimeoutS) * time.Second
}

// TimeLimit is the execution limit sent to the judge.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.Judge.TimeLimitMs) * time.Millisecond
}

// StarTimeThreshold is the completion time after which a star is lost.
func (c Config) StarTimeThreshold() time.Duration {
	return time.Duration(c.Session.StarTimeThresholdS) * time.Second
}

// TickInterval is the simulation step.
func (c Config) TickInterval() time.Duration {
	if c.Session.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.Session.TickRate)
}

// IdleTimeout is the SSH idle timeout.
func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Serve.IdleTimeoutS) * time.Second
}
