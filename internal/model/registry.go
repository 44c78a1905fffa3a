package model

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/stronghold/internal/bundled"
	"github.com/ekisa-team/stronghold/internal/source"
	"github.com/ekisa-team/stronghold/internal/stronghold"
	"github.com/ekisa-team/stronghold/internal/xfs"
)

const defaultReloadConcurrency = 4

// Handle is a loadable model tracked by the registry.
type Handle interface {
	// Identifier returns the stable, non-empty key of the model.
	Identifier() string

	// ForceReload re-reads the model from its backing source.
	ForceReload() error
}

// HandleFactory builds a handle for a model source.
type HandleFactory func(src source.Source) (Handle, error)

// Observer is notified about registry changes. Calls are made outside the
// registry lock and may arrive concurrently during a bulk reload.
type Observer interface {
	ModelRegistered(id string)
	ActiveModelChanged(id string)
	ModelReloaded(id string, err error, elapsed time.Duration)
}

// Option configures a Registry.
type Option func(*Registry)

// WithBundle sets the file system internal models are resolved against.
func WithBundle(bundle fs.FS) Option {
	return func(r *Registry) {
		r.bundle = bundle
	}
}

// WithHandleFactory overrides how handles are built for RegisterInternal and RegisterExternal.
func WithHandleFactory(factory HandleFactory) Option {
	return func(r *Registry) {
		r.factory = factory
	}
}

// WithObserver attaches an observer to the registry.
func WithObserver(observer Observer) Option {
	return func(r *Registry) {
		r.observer = observer
	}
}

// WithReloadConcurrency bounds the number of reloads ForceReloadAll runs at once.
func WithReloadConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.reloadConcurrency = n
		}
	}
}

// Registry stores model handles in registration order and tracks the active one.
type Registry struct {
	models            map[string]Handle
	order             []string
	active            string
	bundle            fs.FS
	factory           HandleFactory
	observer          Observer
	reloadConcurrency int
	mu                sync.RWMutex

	// notifyMu orders active model notifications. It is taken before mu.
	notifyMu sync.Mutex
}

// NewRegistry creates an empty model registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		models:            map[string]Handle{},
		bundle:            bundled.FS(),
		factory:           newStrongholdHandle,
		reloadConcurrency: defaultReloadConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func newStrongholdHandle(src source.Source) (Handle, error) {
	m, err := stronghold.NewModel(src)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Register adds a handle under its identifier.
// The registry is left unchanged if the identifier is empty or already taken.
func (r *Registry) Register(handle Handle) error {
	id := handle.Identifier()
	if id == "" {
		return ErrInvalidIdentifier
	}

	r.mu.Lock()
	if _, exists := r.models[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
	}
	r.models[id] = handle
	r.order = append(r.order, id)
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.ModelRegistered(id)
	}
	slog.Debug("Model registered", "model_id", id)

	return nil
}

// RegisterInternal builds a handle for a bundled model archive and registers it.
func (r *Registry) RegisterInternal(resourceName string) (Handle, error) {
	return r.registerSource(source.Internal(r.bundle, resourceName))
}

// RegisterExternal builds a handle for a model on the filesystem and registers it.
func (r *Registry) RegisterExternal(path string) (Handle, error) {
	return r.registerSource(source.External(xfs.ExpandTilde(path)))
}

func (r *Registry) registerSource(src source.Source) (Handle, error) {
	handle, err := r.factory(src)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model %s: %w", src.Type(), src.Location(), err)
	}

	if err := r.Register(handle); err != nil {
		return nil, err
	}

	return handle, nil
}

// SetActiveModel marks the model with the given identifier as active.
// The active model is unchanged if the identifier is unknown.
func (r *Registry) SetActiveModel(id string) error {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if _, ok := r.models[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownIdentifier, id)
	}
	changed := r.active != id
	r.active = id
	r.mu.Unlock()

	if changed {
		if r.observer != nil {
			r.observer.ActiveModelChanged(id)
		}
		slog.Info("Active model changed", "model_id", id)
	}

	return nil
}

// ActiveModel returns the active handle, or false if none has been selected.
func (r *Registry) ActiveModel() (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == "" {
		return nil, false
	}

	return r.models[r.active], true
}

// IsActiveModel reports whether id is the identifier of the active model.
func (r *Registry) IsActiveModel(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active != "" && r.active == id
}

// DefaultModelIdentifier returns the first registered identifier, or "" if the registry is empty.
func (r *Registry) DefaultModelIdentifier() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return ""
	}

	return r.order[0]
}

// RegisteredIdentifiers returns all identifiers in registration order.
func (r *Registry) RegisteredIdentifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)

	return ids
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Model returns the handle registered under id.
func (r *Registry) Model(id string) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, id)
	}

	return handle, nil
}

// SetReloadConcurrency changes the bound used by ForceReloadAll. Values below 1 are ignored.
func (r *Registry) SetReloadConcurrency(n int) {
	if n < 1 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadConcurrency = n
}

// ForceReload reloads a single model. Failures are returned as *ReloadError.
func (r *Registry) ForceReload(id string) error {
	handle, err := r.Model(id)
	if err != nil {
		return err
	}

	return r.reload(handle).Err
}

// ForceReloadAll reloads every registered model independently and never fails.
// Individual failures are logged and collected in the returned report.
// Once ctx is done no further reloads are started; the skipped models are
// reported with the context error.
func (r *Registry) ForceReloadAll(ctx context.Context) *ReloadReport {
	r.mu.RLock()
	handles := make([]Handle, 0, len(r.order))
	for _, id := range r.order {
		handles = append(handles, r.models[id])
	}
	limit := r.reloadConcurrency
	r.mu.RUnlock()

	report := newReloadReport(len(handles))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, handle := range handles {
		if err := ctx.Err(); err != nil {
			report.Results[i] = ReloadResult{
				ModelID: handle.Identifier(),
				Err:     &ReloadError{ModelID: handle.Identifier(), Err: err},
			}
			continue
		}

		g.Go(func() error {
			report.Results[i] = r.reload(handle)
			return nil
		})
	}
	_ = g.Wait()
	report.Duration = time.Since(report.StartedAt)

	failed := report.Failed()
	for _, res := range failed {
		slog.Error("Failed to reload model", "report_id", report.ID, "model_id", res.ModelID, "error", res.Err)
	}
	slog.Info("Models reloaded", "report_id", report.ID, "total", len(report.Results), "failed", len(failed), "duration", report.Duration)

	return report
}

// reload runs one handle reload and notifies the observer.
func (r *Registry) reload(handle Handle) ReloadResult {
	id := handle.Identifier()
	start := time.Now()
	err := handle.ForceReload()
	elapsed := time.Since(start)

	if r.observer != nil {
		r.observer.ModelReloaded(id, err, elapsed)
	}

	res := ReloadResult{ModelID: id, Duration: elapsed}
	if err != nil {
		res.Err = &ReloadError{ModelID: id, Err: err}
		return res
	}

	slog.Debug("Model reloaded", "model_id", id, "duration", elapsed)
	return res
}
