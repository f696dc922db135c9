package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/codequest.yaml
var defaultYAML []byte

// DefaultConfig returns the hardcoded configuration. It mirrors
// defaults/codequest.yaml and is used if the embedded file cannot be parsed.
func DefaultConfig() Config {
	return Config{
		Judge: JudgeConfig{
			Mode:          JudgeLocal,
			URL:           "http://localhost:3000/api/v1/judge/execute",
			Language:      "java",
			TimeLimitMs:   5000,
			MemoryLimitMB: 256,
			TimeoutS:      15,
		},
		Progress: ProgressConfig{
			URL: "http://localhost:4000/api/v1",
		},
		Grid: GridConfig{
			CellSize: 1,
		},
		Movement: MovementConfig{
			CellsPerSecond: 6,
			CommandGapMs:   200,
			WaitUnitMs:     100,
		},
		Session: SessionConfig{
			GoalTolerance:      0.5,
			StarTimeThresholdS: 300,
			TickRate:           30,
		},
		Hints: HintsConfig{
			Assist: string(AssistStandard),
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  "~/.codequest/codequest.db",
		},
		Log: LogConfig{
			Level: "info",
			Path:  "~/.codequest/codequest.log",
		},
		Auth: AuthConfig{
			TokenFile: "~/.codequest/token",
		},
		Serve: ServeConfig{
			SSHAddr:      ":2222",
			HostKeyPath:  "~/.codequest/ssh_host_key",
			IdleTimeoutS: 1800,
			JudgeAddr:    ":3000",
		},
		Source: "embedded",
	}
}

func yamlUnmarshalDefault(cfg *Config) error {
	return yaml.Unmarshal(defaultYAML, cfg)
}
