package storage

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Meta bucket and keys
var (
	MetaBucket   = []byte("__meta")
	MetaVersion  = []byte("version")
	MetaCreated  = []byte("created")
	MetaModified = []byte("modified")
)

const boltOpenTimeout = 2 * time.Second

// BoltArea provides BBolt-based storage for quickdb
type BoltArea struct {
	mu sync.RWMutex
	db *bolt.DB
}

// OpenBolt opens or creates a bolt area at path
func OpenBolt(path string) (*BoltArea, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &BoltArea{db: db}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// initialize creates the meta bucket on first open
func (a *BoltArea) initialize() error {
	return a.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(MetaBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", MetaBucket, err)
		}
		if meta.Get(MetaVersion) != nil {
			return nil
		}
		if err := meta.Put(MetaVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		if err := meta.Put(MetaCreated, created); err != nil {
			return err
		}
		return meta.Put(MetaModified, created)
	})
}

// Path returns the database file path
func (a *BoltArea) Path() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return ""
	}
	return a.db.Path()
}

// Close closes the database
func (a *BoltArea) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *BoltArea) view(fn func(tx *bolt.Tx) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return ErrClosed
	}
	return a.db.View(fn)
}

// update runs fn in a write transaction and bumps the modified timestamp
func (a *BoltArea) update(fn func(tx *bolt.Tx) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return ErrClosed
	}
	return a.db.Update(func(tx *bolt.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(MetaBucket)
		if err != nil {
			return err
		}
		modified, _ := time.Now().MarshalBinary()
		return meta.Put(MetaModified, modified)
	})
}

// Get returns a copy of the value at ns/key
func (a *BoltArea) Get(ns, key string) ([]byte, bool, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, false, err
	}
	var data []byte
	err := a.view(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte{}, v...)
		return nil
	})
	return data, data != nil, err
}

// Put stores value at ns/key, creating the namespace bucket if needed
func (a *BoltArea) Put(ns, key string, value []byte) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	return a.update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ns, err)
		}
		return b.Put([]byte(key), value)
	})
}

// Delete removes ns/key. Missing keys are not an error.
func (a *BoltArea) Delete(ns, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	return a.update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Keys returns the sorted keys of a namespace
func (a *BoltArea) Keys(ns string) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	keys := []string{}
	err := a.view(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	// bbolt iterates in byte order already
	return keys, err
}

// Namespaces returns every namespace that holds at least one bucket
func (a *BoltArea) Namespaces() ([]string, error) {
	var names []string
	err := a.view(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if string(name) != string(MetaBucket) {
				names = append(names, string(name))
			}
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

// DeleteNamespace drops a namespace bucket with all its keys
func (a *BoltArea) DeleteNamespace(ns string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	return a.update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(ns)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(ns))
	})
}

// Clear drops every namespace. Meta information survives.
func (a *BoltArea) Clear() error {
	return a.update(func(tx *bolt.Tx) error {
		var names [][]byte
		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if string(name) != string(MetaBucket) {
				names = append(names, append([]byte{}, name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to delete bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Created returns when the area was first initialized
func (a *BoltArea) Created() (time.Time, error) {
	return a.metaTime(MetaCreated)
}

// Modified returns the last write time
func (a *BoltArea) Modified() (time.Time, error) {
	return a.metaTime(MetaModified)
}

func (a *BoltArea) metaTime(key []byte) (time.Time, error) {
	var t time.Time
	err := a.view(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return fmt.Errorf("meta bucket not found")
		}
		data := meta.Get(key)
		if data == nil {
			return fmt.Errorf("%s time not found", key)
		}
		return t.UnmarshalBinary(data)
	})
	return t, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after dropping instances to reclaim disk space.
func (a *BoltArea) Compact() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return ErrClosed
	}

	srcPath := a.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = a.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := a.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}
	a.db = nil

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return a.reopen(srcPath, fmt.Errorf("failed to backup original: %w", err))
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return a.reopen(srcPath, fmt.Errorf("failed to replace database: %w", err))
	}
	os.Remove(backupPath)

	return a.reopen(srcPath, nil)
}

// reopen reopens the database after compaction and returns cause when set
func (a *BoltArea) reopen(path string, cause error) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}
	a.db = db
	return cause
}
