package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// FileName is the name of the persisted config file written next to a
// generated project.
const FileName = "mloq.yaml"

// Paths contains the standard locations used by mloq.
type Paths struct {
	Config string // ~/.config/mloq
	Cache  string // ~/.cache/mloq
}

// GetPaths returns the standard paths, honouring the XDG variables.
func GetPaths() *Paths {
	return &Paths{
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), "mloq"),
		Cache:  filepath.Join(getEnvOrDefault("XDG_CACHE_HOME", defaultCacheHome()), "mloq"),
	}
}

// GlobalConfigPath returns the path of the user-wide config file, merged
// below any file given on the command line.
func GlobalConfigPath() string {
	if dir := os.Getenv("MLOQ_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, FileName)
	}
	return filepath.Join(GetPaths().Config, FileName)
}

// ProjectConfigPath returns the config file path inside a project directory.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, FileName)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultCacheHome() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cache")
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
