package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ekisa-team/stronghold/internal/config"
	"github.com/ekisa-team/stronghold/internal/source"
	"github.com/ekisa-team/stronghold/internal/xfs"
)

// Manager applies configuration to a registry.
type Manager struct {
	registry *Registry
	mu       sync.Mutex
}

// NewManager creates a Manager for registry.
func NewManager(registry *Registry) *Manager {
	return &Manager{registry: registry}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// LoadModelsFromConfig registers the configured and discovered models,
// reloads every model and selects the active one.
// Models registered by an earlier call are kept and reloaded; the registry
// never drops entries.
func (m *Manager) LoadModelsFromConfig(ctx context.Context, cfg *config.Config) (*ReloadReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry.SetReloadConcurrency(cfg.Reload.Concurrency)

	modelsPath := config.ResolveModelsPath(cfg)

	for i, modelConfig := range cfg.Models {
		typ, location, err := modelConfig.GetSource()
		if err != nil {
			return nil, fmt.Errorf("invalid model #%d: %w", i, err)
		}

		var handle Handle
		switch typ {
		case source.TypeInternal:
			handle, err = m.registry.RegisterInternal(location)
		case source.TypeExternal:
			handle, err = m.registry.RegisterExternal(resolveExternalPath(location, modelsPath))
		}

		if errors.Is(err, ErrDuplicateIdentifier) {
			slog.Warn("Model already registered, skipping", "source", typ, "location", location, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to register %s model %s: %w", typ, location, err)
		}

		slog.Info("Model added to registry", "model_id", handle.Identifier(), "source", typ, "location", location)
	}

	if len(cfg.Discover) > 0 {
		if err := m.registerDiscovered(modelsPath, cfg.Discover); err != nil {
			return nil, err
		}
	}

	report := m.registry.ForceReloadAll(ctx)

	if err := m.selectActive(cfg.Active); err != nil {
		return report, err
	}

	return report, nil
}

// registerDiscovered registers every external model matching the discover patterns.
func (m *Manager) registerDiscovered(modelsPath string, patterns []string) error {
	if err := os.MkdirAll(modelsPath, 0o755); err != nil {
		return fmt.Errorf("failed to prepare models directory %s: %w", modelsPath, err)
	}

	paths, err := source.Discover(modelsPath, patterns)
	if err != nil {
		return fmt.Errorf("failed to discover models in %s: %w", modelsPath, err)
	}

	for _, p := range paths {
		handle, err := m.registry.RegisterExternal(p)
		if errors.Is(err, ErrDuplicateIdentifier) {
			slog.Debug("Discovered model already registered", "path", p)
			continue
		}
		if err != nil {
			slog.Warn("Failed to register discovered model", "path", p, "error", err)
			continue
		}

		slog.Info("Discovered model added to registry", "model_id", handle.Identifier(), "path", p)
	}

	return nil
}

// selectActive applies the configured active model, or falls back to the
// current selection and then to the default identifier.
func (m *Manager) selectActive(configured string) error {
	if configured != "" {
		if err := m.registry.SetActiveModel(configured); err != nil {
			return fmt.Errorf("failed to select configured active model: %w", err)
		}
		return nil
	}

	if _, ok := m.registry.ActiveModel(); ok {
		return nil
	}

	if id := m.registry.DefaultModelIdentifier(); id != "" {
		return m.registry.SetActiveModel(id)
	}

	slog.Warn("No models registered, no active model selected")
	return nil
}

// resolveExternalPath makes relative external paths relative to the models directory.
func resolveExternalPath(location, modelsPath string) string {
	location = xfs.ExpandTilde(location)
	if filepath.IsAbs(location) {
		return location
	}

	return filepath.Join(modelsPath, location)
}
