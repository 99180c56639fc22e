package quickdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/illarion/quickdb/internal/confirm"
	"github.com/illarion/quickdb/internal/obfuscate"
	"github.com/illarion/quickdb/internal/storage"
	"go.uber.org/zap"
)

// PeerKeyPrefix prefixes the reserved record holding an instance's key
const PeerKeyPrefix = "__quickdb_peer_"

// PeerKey returns the reserved record name for an instance's key
func PeerKey(name string) string {
	return PeerKeyPrefix + name
}

// SetMode is accepted by Set for compatibility; every mode overwrites
type SetMode int

const (
	SetDefault SetMode = iota
	SetCreate
)

// InstanceOptions configure Registry.Create
type InstanceOptions struct {
	Obfuscate bool
	Key       string       // used when no key is stored yet
	Area      storage.Kind // Persistent unless set

	// DetachedKey keeps Key out of the area, for keys held elsewhere
	DetachedKey bool
}

// Instance is a named set of keys in one storage area
type Instance struct {
	name       string
	kind       storage.Kind
	area       storage.Area
	obfuscated bool
	key        string
	registry   *Registry
	logger     *zap.Logger
}

func newInstance(r *Registry, name string, opts InstanceOptions) (*Instance, error) {
	area := r.area(opts.Area)
	inst := &Instance{
		name:       name,
		kind:       opts.Area,
		area:       area,
		obfuscated: opts.Obfuscate,
		registry:   r,
		logger:     r.logger.With(zap.String("instance", name)),
	}

	raw, _, err := area.Get(storage.ReservedNamespace, PeerKey(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read key for %s: %w", name, err)
	}
	stored := string(raw)

	inst.key = opts.Key
	if inst.key == "" {
		inst.key = stored
	}
	if inst.key == "" && opts.Obfuscate {
		if inst.key, err = obfuscate.GenerateKey(); err != nil {
			return nil, fmt.Errorf("failed to generate key for %s: %w", name, err)
		}
	}

	if opts.Obfuscate && stored == "" && !(opts.DetachedKey && opts.Key != "") {
		if err := area.Put(storage.ReservedNamespace, PeerKey(name), []byte(inst.key)); err != nil {
			return nil, fmt.Errorf("failed to store key for %s: %w", name, err)
		}
		inst.logger.Info("obfuscation enabled")
	}
	return inst, nil
}

// Name returns the instance name
func (i *Instance) Name() string { return i.name }

// Kind returns the area the instance lives in
func (i *Instance) Kind() storage.Kind { return i.kind }

// Obfuscated reports whether values are obfuscated
func (i *Instance) Obfuscated() bool { return i.obfuscated }

// Set stores value as JSON under key, overwriting any previous value
func (i *Instance) Set(key string, value any, mode ...SetMode) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize %s/%s: %w", i.name, key, err)
	}
	if i.obfuscated {
		data = obfuscate.Transform(data, i.key)
	}
	if err := i.area.Put(i.name, key, data); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", i.name, key, err)
	}
	return nil
}

// Get returns the decoded value under key, or nil when it is absent.
// JSON numbers decode as float64.
func (i *Instance) Get(key string) (any, error) {
	var v any
	ok, err := i.decode(key, &v)
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

// Query is Get
func (i *Instance) Query(key string) (any, error) {
	return i.Get(key)
}

// GetAs decodes the value under key into T. ok is false when absent.
func GetAs[T any](i *Instance, key string) (T, bool, error) {
	var v T
	ok, err := i.decode(key, &v)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// Raw returns the stored bytes under key without decoding them
func (i *Instance) Raw(key string) ([]byte, bool, error) {
	raw, ok, err := i.area.Get(i.name, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s/%s: %w", i.name, key, err)
	}
	return raw, ok, nil
}

func (i *Instance) decode(key string, v any) (bool, error) {
	raw, ok, err := i.Raw(key)
	if err != nil || !ok || len(raw) == 0 {
		return false, err
	}
	if i.obfuscated {
		raw = obfuscate.Transform(raw, i.key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, &DeserializationError{Instance: i.name, Key: key, Err: err}
	}
	return true, nil
}

// DeleteKey removes key. Removing a missing key is not an error.
func (i *Instance) DeleteKey(key string) error {
	if err := i.area.Delete(i.name, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", i.name, key, err)
	}
	return nil
}

// Has reports whether key is stored
func (i *Instance) Has(key string) (bool, error) {
	_, ok, err := i.Raw(key)
	return ok, err
}

// Keys returns the instance's keys, sorted
func (i *Instance) Keys() ([]string, error) {
	keys, err := i.area.Keys(i.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of %s: %w", i.name, err)
	}
	return keys, nil
}

// Dump decodes every key of the instance
func (i *Instance) Dump() (map[string]any, error) {
	keys, err := i.Keys()
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, PeerKeyPrefix) {
			continue
		}
		v, err := i.Get(k)
		if err != nil {
			return nil, err
		}
		data[k] = v
	}

	i.Log(fmt.Sprintf("Dumped %d keys", len(data)), LevelInfo)
	return data, nil
}

// Delete removes every key of the instance and its stored key, then
// unregisters it. Unless force is set the registry's Confirmer is asked
// first; a declined prompt returns false and changes nothing.
func (i *Instance) Delete(ctx context.Context, force bool) (bool, error) {
	if !force {
		confirmed := i.registry.confirmer.Confirm(ctx, confirm.Dialog{
			Title:        fmt.Sprintf("Delete Instance %q", i.name),
			Message:      fmt.Sprintf("Are you sure you want to delete this instance(%s) and all its data?", i.name),
			ConfirmLabel: "Delete",
			CancelLabel:  "Cancel",
			Severity:     confirm.SeverityDelete,
		})
		if !confirmed {
			return false, nil
		}
	}

	if err := i.area.DeleteNamespace(i.name); err != nil {
		return false, fmt.Errorf("failed to delete instance %s: %w", i.name, err)
	}
	if i.obfuscated {
		if err := i.area.Delete(storage.ReservedNamespace, PeerKey(i.name)); err != nil {
			return false, fmt.Errorf("failed to delete key of %s: %w", i.name, err)
		}
	}

	i.Log(fmt.Sprintf("Instance %q has been deleted", i.name), LevelInfo)
	i.registry.unregister(i)
	return true, nil
}

// ClearArea wipes the whole area the instance lives in, including other
// instances and their keys.
func (i *Instance) ClearArea() error {
	if err := i.area.Clear(); err != nil {
		return fmt.Errorf("failed to clear %s area: %w", i.kind, err)
	}
	i.Log(fmt.Sprintf("Cleared %s area", i.kind), LevelWarn)
	return nil
}

// Log appends an entry to the shared log and mirrors it to the process
// logger. Failures are reported to the process logger only.
func (i *Instance) Log(message string, level ...Level) {
	lvl := LevelInfo
	if len(level) > 0 && level[0] != "" {
		lvl = level[0]
	}

	switch lvl {
	case LevelWarn:
		i.logger.Warn(message)
	case LevelError:
		i.logger.Error(message)
	default:
		i.logger.Info(message)
	}

	err := i.registry.logs.Append(LogEntry{
		Timestamp: i.registry.clock().UTC().Format(TimestampFormat),
		Level:     lvl,
		Instance:  i.name,
		Message:   message,
	})
	if err != nil {
		i.logger.Error("logging failed", zap.Error(err))
	}
}
