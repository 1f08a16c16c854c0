package schema

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	s := &Schema{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return s, nil
}

// Load reads a schema file. An empty path yields the default schema.
func Load(fs afero.Fs, path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes a schema as YAML.
func Marshal(s *Schema) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Holder hands out the current schema and lets a watcher swap it.
type Holder struct {
	current atomic.Pointer[Schema]
}

// NewHolder creates a holder around s.
func NewHolder(s *Schema) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Get returns the current schema.
func (h *Holder) Get() *Schema {
	return h.current.Load()
}

// Swap replaces the current schema.
func (h *Holder) Swap(s *Schema) {
	h.current.Store(s)
}
