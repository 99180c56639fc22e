// Package ssr reads the data a server renders into a page: props, flash
// messages, validation errors and the CSRF token.
package ssr

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Data is the page-injected payload
type Data struct {
	Props  map[string]any      `json:"props"`
	Flash  map[string]any      `json:"flash"`
	Errors map[string]Messages `json:"errors"`
	CSRF   string              `json:"csrf"`
}

// Messages are the validation errors of one field. A single string
// decodes as a one-element list.
type Messages []string

func (m *Messages) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*m = Messages{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

// Parse decodes page data. Missing sections read as empty.
func Parse(r io.Reader) (*Data, error) {
	var d Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse page data: %w", err)
	}
	return &d, nil
}

// Load parses the page data file at path
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page data: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Get returns props[key], or def when the prop is missing or null
func (d *Data) Get(key string, def any) any {
	if d == nil || d.Props == nil {
		return def
	}
	v, ok := d.Props[key]
	if !ok || v == nil {
		return def
	}
	return v
}

// Has reports whether props[key] is set
func (d *Data) Has(key string) bool {
	return d.Get(key, nil) != nil
}

// Error returns the validation errors for field
func (d *Data) Error(field string) []string {
	if d == nil || d.Errors[field] == nil {
		return []string{}
	}
	return []string(d.Errors[field])
}

// HasErrors reports whether any field failed validation
func (d *Data) HasErrors() bool {
	return d != nil && len(d.Errors) > 0
}
