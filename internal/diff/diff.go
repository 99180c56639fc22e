// Package diff renders line diffs between a stored value and a local one.
package diff

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text
)

// IsText reports whether data looks like text.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sample := data
	if len(sample) > BinarySampleSize {
		sample = sample[:BinarySampleSize]
	}
	if !utf8.Valid(sample) {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		if (b < 32 && b != '\t' && b != '\n' && b != '\r') || b == 127 {
			nonPrintable++
		}
	}
	return nonPrintable <= len(sample)*BinaryThresholdPct/100
}

// Equal compares two contents by SHA-256
func Equal(a, b []byte) bool {
	ha, hb := sha256.Sum256(a), sha256.Sum256(b)
	return ha == hb
}

// Canonical renders v as indented JSON with a trailing newline, so equal
// values produce equal bytes regardless of their original formatting.
func Canonical(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render value: %w", err)
	}
	return append(data, '\n'), nil
}

// Values diffs two decoded values by their canonical JSON
func Values(name string, stored, local any) (string, error) {
	a, err := Canonical(stored)
	if err != nil {
		return "", err
	}
	b, err := Canonical(local)
	if err != nil {
		return "", err
	}
	return Unified(name, a, b)
}

// Unified returns a line diff of stored against local with a/ and b/
// headers, or "" when they are identical.
func Unified(name string, stored, local []byte) (string, error) {
	if Equal(stored, local) {
		return "", nil
	}
	if !IsText(stored) || !IsText(local) {
		return fmt.Sprintf("Binary value %s has changed\n", name), nil
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(stored), string(local))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var result strings.Builder
	fmt.Fprintf(&result, "--- a/%s\n", name)
	fmt.Fprintf(&result, "+++ b/%s\n", name)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				result.WriteString("\n\\ No newline at end of value\n")
			}
		}
	}
	return result.String(), nil
}
