package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/mir4split/internal/types"

	"github.com/pelletier/go-toml/v2"
)

// FileName is looked up next to the executable when no path is given.
const FileName = "config.toml"

type AppConfig struct {
	Split SplitConfig `toml:"split"`
	Log   LogConfig   `toml:"log"`
}

type SplitConfig struct {
	Mode types.Mode `toml:"mode"`
	// OutputDir defaults to the directory of the input file when empty.
	OutputDir string `toml:"output_dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		Split: SplitConfig{
			Mode: types.ModeDialogue,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies env overrides. An empty
// path means config.toml next to the executable; a missing file is not an
// error.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		exeDir, err := exeDir()
		if err != nil {
			exeDir = "."
		}
		path = filepath.Join(exeDir, FileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("MIR4SPLIT_MODE"); v != "" {
		cfg.Split.Mode = types.Mode(v)
	}
	if v := os.Getenv("MIR4SPLIT_OUTPUT_DIR"); v != "" {
		cfg.Split.OutputDir = v
	}
	if v := os.Getenv("MIR4SPLIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MIR4SPLIT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func (c *AppConfig) Validate() error {
	mode, err := types.ParseMode(string(c.Split.Mode))
	if err != nil {
		return fmt.Errorf("split.mode: %w", err)
	}
	c.Split.Mode = mode

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// OutputDirFor returns where outputs for input should be written.
func (c *AppConfig) OutputDirFor(input string) string {
	if c.Split.OutputDir != "" {
		return c.Split.OutputDir
	}
	return filepath.Dir(input)
}

func exeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
