package config

import (
	"fmt"

	"github.com/ekisa-team/stronghold/internal/source"
)

// Config holds the main configuration for the application.
type Config struct {
	Version  string        `json:"version"            yaml:"version"`
	Storage  StorageConfig `json:"storage,omitempty"  yaml:"storage,omitempty"`
	Models   []ModelConfig `json:"models"             yaml:"models"`
	Discover []string      `json:"discover,omitempty" yaml:"discover,omitempty"`
	Active   string        `json:"active,omitempty"   yaml:"active,omitempty"`
	Reload   ReloadConfig  `json:"reload,omitempty"   yaml:"reload,omitempty"`
	Server   ServerConfig  `json:"server,omitempty"   yaml:"server,omitempty"`
}

// StorageConfig holds where external models live.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// ModelConfig declares one model. Exactly one of Internal or External is set.
type ModelConfig struct {
	Internal string `json:"internal,omitempty" yaml:"internal,omitempty"`
	External string `json:"external,omitempty" yaml:"external,omitempty"`
}

// ReloadConfig controls bulk reloads.
type ReloadConfig struct {
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// ServerConfig holds listener ports.
type ServerConfig struct {
	HTTPPort int `json:"http_port,omitempty" yaml:"http_port,omitempty"`
	GRPCPort int `json:"grpc_port,omitempty" yaml:"grpc_port,omitempty"`
}

// GetSource returns the source type and location of the model.
func (m ModelConfig) GetSource() (source.Type, string, error) {
	switch {
	case m.Internal != "" && m.External != "":
		return "", "", fmt.Errorf("model declares both internal %q and external %q", m.Internal, m.External)
	case m.Internal != "":
		return source.TypeInternal, m.Internal, nil
	case m.External != "":
		return source.TypeExternal, m.External, nil
	default:
		return "", "", fmt.Errorf("no source configured for model")
	}
}
