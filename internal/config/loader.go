package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigFileName is the standard configuration file name.
	DefaultConfigFileName = "censo.toml"

	// XDGConfigSubdir is the subdirectory under XDG_CONFIG_HOME and XDG_DATA_HOME.
	XDGConfigSubdir = "censo"
)

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load attempts to load configuration from multiple sources in order of precedence:
// 1. Explicit path (if provided)
// 2. XDG config path (~/.config/censo/censo.toml)
// 3. Current working directory (./censo.toml)
// 4. Default configuration (if createDefault is true)
//
// Returns the loaded configuration and the path it was loaded from.
func Load(explicitPath string, createDefault bool) (*Config, string, error) {
	if explicitPath != "" {
		cfg, err := loadFromFile(explicitPath)
		if err != nil {
			return nil, "", &LoadError{Path: explicitPath, Err: err}
		}
		return cfg, explicitPath, nil
	}

	xdgPath := xdgConfigPath()
	cwdPath := filepath.Join(".", DefaultConfigFileName)

	for _, candidate := range []string{xdgPath, cwdPath} {
		if candidate == "" || !fileExists(candidate) {
			continue
		}
		cfg, err := loadFromFile(candidate)
		if err != nil {
			return nil, "", &LoadError{Path: candidate, Err: err}
		}
		return cfg, candidate, nil
	}

	if !createDefault {
		return nil, "", errors.New("no configuration file found; searched: " + xdgPath + ", " + cwdPath)
	}

	cfg := Default()

	defaultPath := cwdPath
	if xdgPath != "" {
		if err := os.MkdirAll(filepath.Dir(xdgPath), 0750); err == nil {
			defaultPath = xdgPath
		}
	}

	if err := Save(cfg, defaultPath); err != nil {
		// Continue with in-memory default if we can't write
		return cfg, "", nil
	}

	return cfg, defaultPath, nil
}

// loadFromFile reads and parses a TOML configuration file on top of the defaults.
func loadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Save writes a configuration to a TOML file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header := `# Censo Parroquial configuration
#
# Generated with default values. Leave [api].base_url empty to work
# offline against the local catalog cache.

`
	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}

	return nil
}

// xdgConfigPath returns the XDG-compliant config file path.
// Returns empty string if XDG_CONFIG_HOME is not set and HOME is not available.
func xdgConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, XDGConfigSubdir, DefaultConfigFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", XDGConfigSubdir, DefaultConfigFileName)
}

// xdgDataDir returns $XDG_DATA_HOME/censo (or ~/.local/share/censo), or "".
func xdgDataDir() string {
	xdgData := os.Getenv("XDG_DATA_HOME")
	if xdgData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		xdgData = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(xdgData, XDGConfigSubdir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ConfigPath returns the configuration file path that would be used.
func ConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	xdgPath := xdgConfigPath()
	if xdgPath != "" && fileExists(xdgPath) {
		return xdgPath
	}

	cwdPath := filepath.Join(".", DefaultConfigFileName)
	if fileExists(cwdPath) {
		return cwdPath
	}

	if xdgPath != "" {
		return xdgPath
	}

	return cwdPath
}

// EnsureDataDir creates the data directory for the local store if needed.
// Returns the path to the database file.
func EnsureDataDir(cfg *Config) (string, error) {
	dbPath := cfg.Database.Path

	if filepath.IsAbs(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return "", fmt.Errorf("creating database directory: %w", err)
		}
		return dbPath, nil
	}

	dataDir := xdgDataDir()
	if dataDir == "" {
		return dbPath, nil
	}
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		// Fall back to current directory
		return dbPath, nil
	}
	return filepath.Join(dataDir, dbPath), nil
}

// EnsureLogDir creates the log directory if needed.
// An empty logging.file disables file logging and returns "".
func EnsureLogDir(cfg *Config) (string, error) {
	logPath := cfg.Logging.File
	if logPath == "" {
		return "", nil
	}

	dir := filepath.Dir(logPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("creating log directory: %w", err)
		}
	}

	return logPath, nil
}

// BackupDir returns the directory for local store backups.
func BackupDir(cfg *Config) (string, error) {
	var backupDir string
	switch {
	case filepath.IsAbs(cfg.Database.Path):
		backupDir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
	case xdgDataDir() != "":
		backupDir = filepath.Join(xdgDataDir(), "backups")
	default:
		backupDir = "backups"
	}

	if err := os.MkdirAll(backupDir, 0750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	return backupDir, nil
}
