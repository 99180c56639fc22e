// Package obfuscate provides the reversible value transform used by quickdb.
//
// The transform is a byte-wise XOR of the serialized value against the
// UTF-8 bytes of a hex key, with the key repeated cyclically:
//   - Transform is its own inverse (encode and decode are the same call)
//   - Keys are 32 random bytes rendered as 64 lowercase hex characters
//   - DeriveKey turns a passphrase into a key via PBKDF2-HMAC-SHA256
//
// This is obfuscation, not encryption. Anyone who can read the storage
// area can read the key record next to the data and reverse the transform.
// It keeps values from being readable at a glance and nothing more.
package obfuscate
