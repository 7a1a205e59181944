package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "persona"

// Dir returns <user config dir>/persona.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the per-user application data directory:
//
//	Linux:   $XDG_DATA_HOME/persona or ~/.local/share/persona
//	macOS:   ~/Library/Application Support/persona
//	Windows: %AppData%\persona
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir := os.Getenv("AppData")
		if dir == "" {
			return "", errors.New("%AppData% is not defined")
		}
		return filepath.Join(dir, appName), nil
	case "darwin", "ios":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(dir) {
			return filepath.Join(dir, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appName), nil
	}
}

// LogFile returns the configured log file, or <data dir>/logs/persona.log.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	dir, err := DataDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+".log")
	}
	return filepath.Join(dir, "logs", appName+".log")
}

// IsDevMode reports whether the application runs from a source checkout:
// PERSONA_DEV is set, or the working directory holds both .opencode and go.mod.
func IsDevMode() bool {
	if _, ok := os.LookupEnv("PERSONA_DEV"); ok {
		return true
	}
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}
	return exists(filepath.Join(cwd, ".opencode")) && exists(filepath.Join(cwd, "go.mod"))
}

// WorkingDir resolves the directory agent processes are started in: the
// current directory in dev mode, otherwise the data directory.
func WorkingDir(dev bool) string {
	if dev || IsDevMode() {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
		return "."
	}
	dir, err := DataDir()
	if err != nil {
		return "."
	}
	return dir
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
