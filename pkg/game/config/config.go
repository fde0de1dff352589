// Package config holds the player's tunables: the choice countdown, the
// transition fade, and the voice monitor's retry/heartbeat policy. Values
// come from built-in defaults, optionally overlaid by a TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Voice configures the voice monitor.
type Voice struct {
	// TranscriptPipe is a path (usually a FIFO) that an external
	// speech-to-text process writes transcript lines to. Empty disables
	// voice control.
	TranscriptPipe string `toml:"transcript_pipe"`

	Keyword          string `toml:"keyword"`
	MaxRestarts      int    `toml:"max_restarts"`
	RestartBackoffMS int    `toml:"restart_backoff_ms"`
	HeartbeatMS      int    `toml:"heartbeat_ms"`
	StallMS          int    `toml:"stall_ms"`
}

// RestartBackoff returns the backoff between recognizer restarts.
func (v Voice) RestartBackoff() time.Duration {
	return time.Duration(v.RestartBackoffMS) * time.Millisecond
}

// HeartbeatInterval returns how often the stall check runs.
func (v Voice) HeartbeatInterval() time.Duration {
	return time.Duration(v.HeartbeatMS) * time.Millisecond
}

// StallThreshold returns how long the monitor may hear nothing before it
// forces a stop/restart cycle.
func (v Voice) StallThreshold() time.Duration {
	return time.Duration(v.StallMS) * time.Millisecond
}

// Config holds the player configuration.
type Config struct {
	// ChoiceSeconds is the per-decision time limit. 20 and 60 are the two
	// shipped variants; anything positive is accepted.
	ChoiceSeconds int `toml:"choice_seconds"`

	// TransitionMS is the fade duration between nodes.
	TransitionMS int `toml:"transition_ms"`

	// LogFile, when set, routes the log to a rotating file instead of
	// stderr. The windowed backend has no visible stderr, so it defaults
	// this on.
	LogFile string `toml:"log_file"`

	Voice Voice `toml:"voice"`
}

// Transition returns the fade duration between nodes.
func (c Config) Transition() time.Duration {
	return time.Duration(c.TransitionMS) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ChoiceSeconds: 20,
		TransitionMS:  400,
		Voice: Voice{
			Keyword:          "stop",
			MaxRestarts:      5,
			RestartBackoffMS: 1000,
			HeartbeatMS:      5000,
			StallMS:          15000,
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ChoiceSeconds <= 0 {
		return fmt.Errorf("choice_seconds must be positive, got %d", c.ChoiceSeconds)
	}
	if c.TransitionMS < 0 {
		return fmt.Errorf("transition_ms must not be negative, got %d", c.TransitionMS)
	}
	if c.Voice.MaxRestarts < 0 {
		return fmt.Errorf("voice.max_restarts must not be negative, got %d", c.Voice.MaxRestarts)
	}
	return nil
}
