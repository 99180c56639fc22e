package quickdb

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/illarion/quickdb/internal/confirm"
	"github.com/illarion/quickdb/internal/storage"
	"go.uber.org/zap"
)

// Names of the instances every Registry starts with
const (
	GlobalName = "Global"
	UserName   = "User"
)

// Registry maps names to live instances
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance

	persistent storage.Area
	session    storage.Area
	logs       *LogStore
	confirmer  confirm.Confirmer
	logger     *zap.Logger
	clock      func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithConfirmer sets the prompt used by Instance.Delete
func WithConfirmer(c confirm.Confirmer) Option {
	return func(r *Registry) { r.confirmer = c }
}

// WithLogger sets the process logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock sets the time source for log entries
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.clock = now }
}

// NewRegistry creates a registry over the two areas and registers the
// default Global and User instances. Logs go to the session area.
func NewRegistry(persistent, session storage.Area, opts ...Option) (*Registry, error) {
	if persistent == nil || session == nil {
		return nil, ErrNoArea
	}

	r := &Registry{
		instances:  make(map[string]*Instance),
		persistent: persistent,
		session:    session,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.confirmer == nil {
		r.confirmer = confirm.Auto(os.Stdin, os.Stderr)
	}
	r.logs = NewLogStore(session, r.logger)

	if _, err := r.Create(GlobalName, InstanceOptions{}); err != nil {
		return nil, err
	}
	if _, err := r.Create(UserName, InstanceOptions{Obfuscate: true}); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateName checks an instance name. Names starting with "__" are
// reserved, and NUL separates namespace from key in badger areas.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.HasPrefix(name, "__") {
		return fmt.Errorf("%w: %q uses the reserved prefix", ErrInvalidName, name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	return nil
}

// Create constructs an instance and registers it, replacing any instance
// of the same name.
func (r *Registry) Create(name string, opts InstanceOptions) (*Instance, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	inst, err := newInstance(r, name, opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.instances[name] = inst
	r.mu.Unlock()
	return inst, nil
}

// Instance looks up a registered instance
func (r *Registry) Instance(name string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[name]
	return inst, ok
}

// Global returns the default plain instance, nil once deleted
func (r *Registry) Global() *Instance {
	inst, _ := r.Instance(GlobalName)
	return inst
}

// User returns the default obfuscated instance, nil once deleted
func (r *Registry) User() *Instance {
	inst, _ := r.Instance(UserName)
	return inst
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPeerKey reports whether a key is stored for name in the area of kind
func (r *Registry) HasPeerKey(kind storage.Kind, name string) (bool, error) {
	_, ok, err := r.area(kind).Get(storage.ReservedNamespace, PeerKey(name))
	if err != nil {
		return false, fmt.Errorf("failed to read key for %s: %w", name, err)
	}
	return ok, nil
}

// Logs returns the shared log, oldest first
func (r *Registry) Logs() ([]LogEntry, error) {
	return r.logs.Entries()
}

// ClearLogs empties the shared log
func (r *Registry) ClearLogs() error {
	if err := r.logs.Clear(); err != nil {
		return err
	}
	r.logger.Info("all logs cleared")
	return nil
}

func (r *Registry) area(kind storage.Kind) storage.Area {
	if kind == storage.Session {
		return r.session
	}
	return r.persistent
}

// unregister drops inst unless the name was re-created since
func (r *Registry) unregister(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instances[inst.name] == inst {
		delete(r.instances, inst.name)
	}
}
