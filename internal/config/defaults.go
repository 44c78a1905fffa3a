package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ekisa-team/stronghold/internal/envvar"
	"github.com/ekisa-team/stronghold/internal/xfs"
)

// DefaultConfigPath returns the default path for the stronghold config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "stronghold", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "stronghold")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "stronghold")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "stronghold")
		}
		return filepath.Join(home, ".config", "stronghold")
	}
}

// DefaultModelsPath returns the default path for the external models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "stronghold", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "stronghold", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "stronghold", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "stronghold", "models")
		}
		return filepath.Join(home, ".cache", "stronghold", "models")
	}
}

// DefaultHTTPPort returns the default HTTP port.
func DefaultHTTPPort() int {
	return 8080
}

// DefaultGRPCPort returns the default gRPC port.
func DefaultGRPCPort() int {
	return 9090
}

// ResolveModelsPath returns the path to the models directory.
// Precedence:
// 1. STRONGHOLD_MODELS_PATH environment variable.
// 2. ModelsDir field in the config.
// 3. Default models path.
func ResolveModelsPath(cfg *Config) string {
	if p := os.Getenv(envvar.StrongholdModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg != nil && cfg.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(cfg.Storage.ModelsDir)
	}
	return xfs.ExpandTilde(DefaultModelsPath())
}

// ResolveHTTPPort returns the HTTP port from the environment, the config, or the default.
func ResolveHTTPPort(cfg *Config) int {
	return resolvePort(envvar.StrongholdServerHTTPPort, cfg.Server.HTTPPort, DefaultHTTPPort())
}

// ResolveGRPCPort returns the gRPC port from the environment, the config, or the default.
func ResolveGRPCPort(cfg *Config) int {
	return resolvePort(envvar.StrongholdServerGRPCPort, cfg.Server.GRPCPort, DefaultGRPCPort())
}

func resolvePort(key string, configured, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			return port
		}
	}
	if configured > 0 {
		return configured
	}
	return fallback
}
