package electrolyte

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

const (
	appDirName     = "electrolytes"
	configFileName = "config.json"

	// UserFileName is the on-disk user overlay file.
	UserFileName = "user_constituents.json"

	// LockFileName is the sibling lock token. It holds no data.
	LockFileName = "user_constituents.lock"
)

// Config holds the resolved file locations for the database.
type Config struct {
	// DataDir holds the user overlay and its lock file.
	DataDir string `json:"data_dir"`

	// Resolved paths (computed, not serialized).
	UserFile string `json:"-"`
	LockFile string `json:"-"`

	// Source is the config file that supplied DataDir, if any.
	Source string `json:"-"`
}

// configDir resolves the per-user config directory from the environment:
// $XDG_CONFIG_HOME/electrolytes if set, otherwise ~/.config/electrolytes.
// Returns empty when neither variable is available.
func configDir(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, appDirName)
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", appDirName)
	}

	return ""
}

// LoadConfig resolves the data directory with the following precedence
// (highest wins):
//  1. Platform default ($XDG_CONFIG_HOME/electrolytes or
//     ~/.config/electrolytes)
//  2. data_dir from <config-dir>/config.json (JSONC, optional)
//  3. ELECTROLYTES_DATA_DIR environment variable
//  4. dataDirOverride (the --data-dir CLI flag)
func LoadConfig(dataDirOverride string, env map[string]string) (Config, error) {
	cfg := Config{DataDir: configDir(env)}

	fileCfg, path, err := loadConfigFile(cfg.DataDir)
	if err != nil {
		return Config{}, err
	}

	if fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
		cfg.Source = path
	}

	if envDir := env["ELECTROLYTES_DATA_DIR"]; envDir != "" {
		cfg.DataDir = envDir
	}

	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}

	if cfg.DataDir == "" {
		return Config{}, ErrNoConfigDir
	}

	cfg.UserFile = filepath.Join(cfg.DataDir, UserFileName)
	cfg.LockFile = filepath.Join(cfg.DataDir, LockFileName)

	return cfg, nil
}

// loadConfigFile reads the optional config file from dir. A missing file
// yields a zero config; an unparseable one is an error (the user asked
// for something and we could not honor it).
func loadConfigFile(dir string) (Config, string, error) {
	if dir == "" {
		return Config{}, "", nil
	}

	path := filepath.Join(dir, configFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	cfg, explicitEmpty, err := parseConfig(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	if explicitEmpty {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrDataDirEmpty)
	}

	return cfg, path, nil
}

func parseConfig(data []byte) (Config, bool, error) {
	// Standardize JSONC to JSON.
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("invalid JSON: %w", err)
	}

	// Distinguish "data_dir": "" from the key being absent.
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["data_dir"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return Config{}, true, nil
		}
	}

	return cfg, false, nil
}
