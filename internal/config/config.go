// Package config loads application settings from TOML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// DataDir overrides where the database and caches live. Empty
	// means the XDG data directory.
	DataDir string `koanf:"data_dir"`

	// Volume is the startup volume (0.0-1.0, default 1.0).
	Volume float64 `koanf:"volume"`

	Playback PlaybackConfig `koanf:"playback"`
	Import   ImportConfig   `koanf:"import"`

	// MediaSession toggles the host now-playing integration.
	MediaSession MediaSessionConfig `koanf:"media_session"`
}

// PlaybackConfig holds transport behavior settings.
type PlaybackConfig struct {
	// RestartThresholdSeconds is how far into a track the previous
	// control restarts it instead of going back (default: 3).
	RestartThresholdSeconds int `koanf:"restart_threshold_seconds"`
	// SeekOffsetSeconds is the step for relative seeks (default: 10).
	SeekOffsetSeconds int `koanf:"seek_offset_seconds"`
	// RestoreQueue reloads the previous session's queue at startup
	// (default: true).
	RestoreQueue *bool `koanf:"restore_queue"`
}

// ImportConfig holds import behavior settings.
type ImportConfig struct {
	// ProbeDurations decodes each imported file to record its length
	// up front (default: false, lengths are probed on first play).
	ProbeDurations bool `koanf:"probe_durations"`
}

// MediaSessionConfig holds host integration settings.
type MediaSessionConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir != "" {
		cfg.DataDir = expandPath(cfg.DataDir)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/stanza/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "stanza", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// StartupVolume returns the configured volume clamped to 0.0-1.0.
func (c *Config) StartupVolume() float64 {
	if c.Volume <= 0 {
		return 1.0
	}
	if c.Volume > 1 {
		return 1.0
	}
	return c.Volume
}

// RestartThreshold returns the previous-control restart threshold
// with the default applied.
func (c *Config) RestartThreshold() time.Duration {
	s := c.Playback.RestartThresholdSeconds
	if s <= 0 {
		s = 3
	}
	return time.Duration(s) * time.Second
}

// SeekOffset returns the relative seek step with the default applied.
func (c *Config) SeekOffset() time.Duration {
	s := c.Playback.SeekOffsetSeconds
	if s <= 0 {
		s = 10
	}
	return time.Duration(s) * time.Second
}

// RestoreQueue reports whether the previous session's queue should be
// reloaded at startup.
func (c *Config) RestoreQueue() bool {
	if c.Playback.RestoreQueue == nil {
		return true
	}
	return *c.Playback.RestoreQueue
}

// MediaSessionEnabled reports whether the host now-playing surface
// should be attached.
func (c *Config) MediaSessionEnabled() bool {
	if c.MediaSession.Enabled == nil {
		return true
	}
	return *c.MediaSession.Enabled
}
