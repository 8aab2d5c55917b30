// Package settings provides the string-keyed configuration store the
// technology kit reads its filesystem roots, library selection, and tool
// choices from. Keys are dotted paths, e.g. "technology.sky130.sky130A".
package settings

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store is a read/write key-value configuration store. Descriptor generation
// performs one cross-cutting write (disabling clock gating for libraries
// without clock-gate cells), so the interface is not read-only.
type Store interface {
	// Get returns the raw value for key, or false if the key is absent.
	Get(key string) (any, bool)
	// Set stores value under key, replacing any previous value.
	Set(key string, value any)
}

// GetString returns the string value for key. A missing key or a value of
// another type is an error naming the key.
func GetString(s Store, key string) (string, error) {
	v, ok := s.Get(key)
	if !ok {
		return "", fmt.Errorf("setting %q is not defined", key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("setting %q is not a string (got %T)", key, v)
	}
	return str, nil
}

// GetBool returns the boolean value for key, defaulting to false when the
// key is absent.
func GetBool(s Store, key string) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("setting %q is not a boolean (got %T)", key, v)
	}
	return b, nil
}

// GetStringList returns the list value for key, or an empty list when the
// key is absent.
func GetStringList(s Store, key string) ([]string, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, elem := range list {
			str, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("setting %q contains a non-string element (%T)", key, elem)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("setting %q is not a list (got %T)", key, v)
	}
}

// MapStore is an in-memory Store backed by a flat map of dotted keys.
type MapStore struct {
	values map[string]any
}

// NewMapStore creates an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{values: make(map[string]any)}
}

// Get implements Store.
func (m *MapStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set implements Store.
func (m *MapStore) Set(key string, value any) {
	m.values[key] = value
}

// Keys returns all defined keys in sorted order.
func (m *MapStore) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadYAML reads a YAML settings file into a MapStore. Nested mappings are
// flattened into dotted keys, so
//
//	technology:
//	  sky130:
//	    stdcell_library: sky130_fd_sc_hd
//
// becomes "technology.sky130.stdcell_library". Scalar leaves keep their YAML
// types (string, bool, int); sequences are kept as lists.
func LoadYAML(path string) (*MapStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	store := NewMapStore()
	flatten("", root, store)
	return store, nil
}

func flatten(prefix string, node map[string]any, store *MapStore) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, store)
			continue
		}
		store.Set(key, v)
	}
}
