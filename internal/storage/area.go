package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ReservedNamespace holds quickdb's own records (peer keys, logs)
const ReservedNamespace = "__quickdb"

// Drivers accepted by Open
const (
	DriverBolt   = "bolt"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

var (
	ErrClosed         = errors.New("storage area closed")
	ErrEmptyNamespace = errors.New("empty namespace")
	ErrBadNamespace   = errors.New("namespace contains NUL")
	ErrUnknownDriver  = errors.New("unknown storage driver")
	ErrPathRequired   = errors.New("storage path required")
)

// Kind selects which area an instance lives in
type Kind int

const (
	Persistent Kind = iota
	Session
)

func (k Kind) String() string {
	switch k {
	case Persistent:
		return "persistent"
	case Session:
		return "session"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Area is a namespaced key/value storage area.
// Values returned by Get are copies owned by the caller.
type Area interface {
	Get(ns, key string) ([]byte, bool, error)
	Put(ns, key string, value []byte) error
	Delete(ns, key string) error
	Keys(ns string) ([]string, error)
	Namespaces() ([]string, error)
	DeleteNamespace(ns string) error
	Clear() error
	Close() error
}

// Compactor is implemented by areas that can reclaim disk space
type Compactor interface {
	Compact() error
}

// ModTimer is implemented by areas that track their last write
type ModTimer interface {
	Modified() (time.Time, error)
}

// Open opens an area with the given driver. path is ignored for memory.
func Open(driver, path string, logger *zap.Logger) (Area, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch driver {
	case DriverBolt, "":
		if path == "" {
			return nil, ErrPathRequired
		}
		return OpenBolt(path)
	case DriverBadger:
		if path == "" {
			return nil, ErrPathRequired
		}
		return OpenBadger(path, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func checkNamespace(ns string) error {
	if ns == "" {
		return ErrEmptyNamespace
	}
	if strings.ContainsRune(ns, 0) {
		return fmt.Errorf("%w: %q", ErrBadNamespace, ns)
	}
	return nil
}
