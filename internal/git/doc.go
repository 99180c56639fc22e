// Package git checks how git treats the quickdb data file.
//
// The data file holds obfuscated values next to the keys that reveal
// them, so it should be ignored and never tracked.
package git
