package main

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the CLI's on-disk settings file, grounded on
// lookbusy1344-arm_emulator/config/config.go's nested-struct +
// toml-tag + OS-specific-path layout, narrowed to what a Hydra
// session actually needs: REPL behavior and logging.
type Config struct {
	Repl    ReplConfig    `toml:"repl"`
	Logging LoggingConfig `toml:"logging"`
}

type ReplConfig struct {
	HistoryFile string `toml:"history_file"`
	Prompt      string `toml:"prompt"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig mirrors arm-emulator's DefaultConfig(): the values a
// freshly installed CLI runs with before any config file exists.
func DefaultConfig() *Config {
	return &Config{
		Repl: ReplConfig{
			HistoryFile: defaultHistoryFile(),
			Prompt:      "hydra> ",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetConfigPath follows the same OS-specific rule the teacher's
// GetConfigPath does: XDG on Linux/BSD, AppData on Windows, Library
// on Darwin, all falling back to the home directory.
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hydra", "config.toml"), nil
}

func defaultHistoryFile() string {
	dir, err := configDir()
	if err != nil {
		return ".hydra_history"
	}
	return filepath.Join(dir, "hydra", "history")
}

func configDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Load reads the config from its standard location, returning
// defaults untouched when no file exists yet.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config back to its standard location, creating
// the containing directory if needed.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path) // #nosec G304 -- user-owned config path
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
