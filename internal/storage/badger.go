package storage

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

const nsSeparator = "\x00"

// gcDiscardRatio is passed to RunValueLogGC during Compact
const gcDiscardRatio = 0.5

// BadgerArea stores namespaced keys in a Badger v3 database
type BadgerArea struct {
	db     *badger.DB
	dir    string
	logger *zap.Logger
}

// OpenBadger opens or creates a badger area in dir
func OpenBadger(dir string, logger *zap.Logger) (*BadgerArea, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger: logger.Sugar().Named("badger")}
	return openBadger(opts, dir, logger)
}

// OpenBadgerInMemory opens a badger area that never touches disk
func OpenBadgerInMemory(logger *zap.Logger) (*BadgerArea, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = &badgerLogger{logger: logger.Sugar().Named("badger")}
	return openBadger(opts, "", logger)
}

func openBadger(opts badger.Options, dir string, logger *zap.Logger) (*BadgerArea, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	logger.Debug("badger area opened", zap.String("dir", dir))
	return &BadgerArea{db: db, dir: dir, logger: logger}, nil
}

func nsKey(ns, key string) []byte {
	return []byte(ns + nsSeparator + key)
}

func nsPrefix(ns string) []byte {
	return []byte(ns + nsSeparator)
}

// Path returns the database directory
func (a *BadgerArea) Path() string {
	return a.dir
}

// Get retrieves a value by namespace and key
func (a *BadgerArea) Get(ns, key string) ([]byte, bool, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, false, err
	}
	var value []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nsKey(ns, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		if value == nil {
			value = []byte{}
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

// Put stores a value
func (a *BadgerArea) Put(ns, key string, value []byte) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nsKey(ns, key), value)
	})
}

// Delete removes a key
func (a *BadgerArea) Delete(ns, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nsKey(ns, key))
	})
}

// Keys returns the sorted keys in ns, without the namespace prefix
func (a *BadgerArea) Keys(ns string) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	prefix := nsPrefix(ns)
	keys := []string{}
	err := a.scan(prefix, func(k []byte) {
		keys = append(keys, string(k[len(prefix):]))
	})
	return keys, err
}

// Namespaces returns the distinct namespaces holding keys
func (a *BadgerArea) Namespaces() ([]string, error) {
	seen := map[string]struct{}{}
	err := a.scan(nil, func(k []byte) {
		if i := bytes.IndexByte(k, 0); i > 0 {
			seen[string(k[:i])] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for ns := range seen {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names, nil
}

func (a *BadgerArea) scan(prefix []byte, fn func(key []byte)) error {
	return a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			fn(it.Item().KeyCopy(nil))
		}
		return nil
	})
}

// DeleteNamespace drops every key in ns
func (a *BadgerArea) DeleteNamespace(ns string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	return a.db.DropPrefix(nsPrefix(ns))
}

// Clear drops all data
func (a *BadgerArea) Clear() error {
	return a.db.DropAll()
}

// Compact runs value log GC until badger reports nothing left to rewrite
func (a *BadgerArea) Compact() error {
	for {
		err := a.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger: value log gc: %w", err)
		}
	}
}

// Close closes the database
func (a *BadgerArea) Close() error {
	if a.db.IsClosed() {
		return nil
	}
	return a.db.Close()
}

// badgerLogger adapts zap to Badger's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}
