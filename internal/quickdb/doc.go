// Package quickdb provides named key/value instances on top of a storage
// area, with optional obfuscation of stored values, a shared capped log
// and confirmation-gated deletion.
//
// Values are stored as their JSON text. An obfuscated instance XORs that
// text against its key before writing; the key lives beside the data in
// the reserved record __quickdb_peer_<name>. This hides values from a
// casual look at the storage file and nothing more. It is not encryption.
//
// A Registry owns the instances and always starts with two of them:
// "Global" (plain) and "User" (obfuscated).
package quickdb
