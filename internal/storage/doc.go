// Package storage provides the storage areas behind quickdb instances.
//
// An area is a namespaced key/value store. Each instance writes into the
// namespace named after it, and quickdb's own records live in the
// reserved "__quickdb" namespace:
//   - bolt: one BBolt bucket per namespace, plus a "__meta" bucket with
//     version and created/modified timestamps
//   - badger: Badger v3 keys of the form namespace + NUL + key
//   - memory: nested maps, gone when the process exits
//
// Persistent instances use a bolt or badger file. Session instances and
// the shared log record use the session area, which is memory for
// library callers and a temporary bolt file for the CLI.
package storage
