package config

import "fmt"

// AssistPreset scales how quickly hints unlock.
type AssistPreset string

const (
	AssistGenerous AssistPreset = "generous"
	AssistStandard AssistPreset = "standard"
	AssistStrict   AssistPreset = "strict"
)

// ParseAssist validates a preset name. Empty means standard.
func ParseAssist(s string) (AssistPreset, error) {
	switch AssistPreset(s) {
	case "":
		return AssistStandard, nil
	case AssistGenerous, AssistStandard, AssistStrict:
		return AssistPreset(s), nil
	default:
		return "", fmt.Errorf("invalid assist preset %q", s)
	}
}

// ScaleThreshold returns the attempts-per-tier value a level's k becomes
// under this preset. The result is never below 1.
func (p AssistPreset) ScaleThreshold(k int) int {
	if k < 1 {
		k = 1
	}
	switch p {
	case AssistGenerous:
		k /= 2
	case AssistStrict:
		k *= 2
	}
	if k < 1 {
		k = 1
	}
	return k
}
