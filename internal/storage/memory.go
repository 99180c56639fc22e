package storage

import (
	"sort"
	"sync"
)

// MemoryArea keeps namespaces in process memory
type MemoryArea struct {
	mu     sync.RWMutex
	data   map[string]map[string][]byte
	closed bool
}

// NewMemory creates an empty memory area
func NewMemory() *MemoryArea {
	return &MemoryArea{data: make(map[string]map[string][]byte)}
}

func (a *MemoryArea) Get(ns, key string) ([]byte, bool, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, false, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, false, ErrClosed
	}
	v, ok := a.data[ns][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (a *MemoryArea) Put(ns, key string, value []byte) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	bucket, ok := a.data[ns]
	if !ok {
		bucket = make(map[string][]byte)
		a.data[ns] = bucket
	}
	bucket[key] = append([]byte{}, value...)
	return nil
}

func (a *MemoryArea) Delete(ns, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	delete(a.data[ns], key)
	if len(a.data[ns]) == 0 {
		delete(a.data, ns)
	}
	return nil
}

func (a *MemoryArea) Keys(ns string) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(a.data[ns]))
	for k := range a.data[ns] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (a *MemoryArea) Namespaces() ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}
	names := make([]string, 0, len(a.data))
	for ns := range a.data {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names, nil
}

func (a *MemoryArea) DeleteNamespace(ns string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	delete(a.data, ns)
	return nil
}

func (a *MemoryArea) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.data = make(map[string]map[string][]byte)
	return nil
}

func (a *MemoryArea) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.data = nil
	return nil
}
