package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg := DefaultConfig()
	if err := yamlUnmarshalDefault(&cfg); err != nil {
		t.Fatalf("embedded default does not parse: %v", err)
	}
	def := DefaultConfig()

	if cfg.Judge != def.Judge {
		t.Errorf("judge: embedded %+v, hardcoded %+v", cfg.Judge, def.Judge)
	}
	if cfg.Movement != def.Movement || cfg.Session != def.Session {
		t.Error("movement or session defaults differ")
	}
	if cfg.CellDuration() != time.Second/6 {
		t.Errorf("CellDuration() = %v", cfg.CellDuration())
	}
	if cfg.CommandGap() != 200*time.Millisecond || cfg.WaitUnit() != 100*time.Millisecond {
		t.Errorf("gap=%v wait=%v", cfg.CommandGap(), cfg.WaitUnit())
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := "judge:\n  mode: remote\n  url: http://judge.test/execute\nhints:\n  assist: strict\nlog:\n  level: DEBUG\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Judge.Mode != JudgeRemote || cfg.Judge.URL != "http://judge.test/execute" {
		t.Errorf("judge = %+v", cfg.Judge)
	}
	if cfg.Judge.TimeLimitMs != 5000 {
		t.Errorf("unspecified fields should keep defaults, got %d", cfg.Judge.TimeLimitMs)
	}
	if cfg.Assist() != AssistStrict || cfg.Log.Level != "debug" || cfg.Source != path {
		t.Errorf("unexpected config: assist=%s level=%s source=%s", cfg.Assist(), cfg.Log.Level, cfg.Source)
	}
	if strings.HasPrefix(cfg.Storage.DBPath, "~") {
		t.Errorf("DBPath not expanded: %s", cfg.Storage.DBPath)
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadDotEnvAndEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	if err := os.WriteFile(".env", []byte("CODEQUEST_LOG_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvLogLevel)
	t.Setenv(EnvProgressURL, "http://progress.test/api/v1")
	t.Setenv(EnvJudgeMode, "remote")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level from .env = %q", cfg.Log.Level)
	}
	if !cfg.Progress.Enabled || cfg.Progress.URL != "http://progress.test/api/v1" {
		t.Errorf("progress = %+v", cfg.Progress)
	}
	if cfg.Judge.Mode != JudgeRemote {
		t.Errorf("judge mode = %q", cfg.Judge.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad mode", func(c *Config) { c.Judge.Mode = "cloud" }, true},
		{"remote without url", func(c *Config) { c.Judge.Mode = JudgeRemote; c.Judge.URL = "" }, true},
		{"bad assist", func(c *Config) { c.Hints.Assist = "cheat" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad tolerance", func(c *Config) { c.Session.GoalTolerance = 2 }, true},
		{"negative gap", func(c *Config) { c.Movement.CommandGapMs = -1 }, true},
		{"progress without url", func(c *Config) { c.Progress.Enabled = true; c.Progress.URL = "" }, true},
		{"zero values filled", func(c *Config) { c.Judge.TimeLimitMs = 0; c.Session.TickRate = 0 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && (cfg.Judge.TimeLimitMs <= 0 || cfg.Session.TickRate <= 0) {
				t.Error("Validate() should fill zero values")
			}
		})
	}
}

func TestAssistScaleThreshold(t *testing.T) {
	tests := []struct {
		preset   AssistPreset
		k        int
		expected int
	}{
		{AssistStandard, 3, 3},
		{AssistGenerous, 3, 1},
		{AssistGenerous, 1, 1},
		{AssistGenerous, 4, 2},
		{AssistStrict, 3, 6},
		{AssistStrict, 0, 2},
	}

	for _, tc := range tests {
		if got := tc.preset.ScaleThreshold(tc.k); got != tc.expected {
			t.Errorf("%s.ScaleThreshold(%d) = %d, expected %d", tc.preset, tc.k, got, tc.expected)
		}
	}
}
