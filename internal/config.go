package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when neither flag, env, nor config file names a
// backend.
const DefaultServerURL = "http://localhost:8000"

// Config holds the client configuration loaded from <data-dir>/config.yaml.
type Config struct {
	ServerURL   string `yaml:"server_url"`
	DefaultMode string `yaml:"default_mode,omitempty"` // "ask", "chart", "sql"
}

// Paths holds the resolved on-disk locations for the client.
type Paths struct {
	DataDir    string // base directory, default ~/.afs-chat
	ConfigFile string // <data-dir>/config.yaml
	StoreFile  string // <data-dir>/afs.db
}

// ResolvePaths resolves the data directory, honoring an explicit override
// and the AFS_CHAT_DATA_DIR environment variable.
func ResolvePaths(override string) (Paths, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv("AFS_CHAT_DATA_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".afs-chat")
	}

	return Paths{
		DataDir:    dir,
		ConfigFile: filepath.Join(dir, "config.yaml"),
		StoreFile:  filepath.Join(dir, "afs.db"),
	}, nil
}

// LoadConfig reads the config file, returning defaults when it is missing.
// serverOverride (typically the --server flag or AFS_CHAT_SERVER) wins over
// the file.
func LoadConfig(paths Paths, serverOverride string) (Config, error) {
	cfg := Config{ServerURL: DefaultServerURL, DefaultMode: "ask"}

	data, err := os.ReadFile(paths.ConfigFile)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", paths.ConfigFile, err)
		}
		if cfg.ServerURL == "" {
			cfg.ServerURL = DefaultServerURL
		}
		if cfg.DefaultMode == "" {
			cfg.DefaultMode = "ask"
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to read %s: %w", paths.ConfigFile, err)
	}

	if env := os.Getenv("AFS_CHAT_SERVER"); env != "" {
		cfg.ServerURL = env
	}
	if serverOverride != "" {
		cfg.ServerURL = serverOverride
	}

	if _, ok := ParseQueryMode(cfg.DefaultMode); !ok {
		return Config{}, fmt.Errorf("invalid default_mode %q (want ask, chart, or sql)", cfg.DefaultMode)
	}

	return cfg, nil
}

// SaveConfig writes cfg to the config file, creating the data dir if needed.
func SaveConfig(paths Paths, cfg Config) error {
	if err := os.MkdirAll(paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(paths.ConfigFile, data, 0o644)
}
