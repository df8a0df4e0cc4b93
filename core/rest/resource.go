// Package rest holds the representation of FarmBot web API resources.
package rest

import (
	"encoding/json"
	"fmt"
)

// ID identifies a single resource of an endpoint. NoID addresses the whole
// collection.
type ID int

// NoID addresses an endpoint collection.
const NoID ID = 0

// Resource is a JSON document returned by or sent to an endpoint. It may be
// an object or an array.
type Resource []byte

// Decode unmarshals the resource into v.
func (r Resource) Decode(v any) error {
	if len(r) == 0 {
		return fmt.Errorf("empty resource")
	}
	return json.Unmarshal(r, v)
}

// Object decodes the resource as a JSON object.
func (r Resource) Object() (map[string]any, error) {
	var m map[string]any
	if err := r.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// List decodes the resource as a JSON array of objects.
func (r Resource) List() ([]map[string]any, error) {
	var l []map[string]any
	if err := r.Decode(&l); err != nil {
		return nil, err
	}
	return l, nil
}

// Field returns a top-level field of an object resource.
func (r Resource) Field(name string) (any, error) {
	m, err := r.Object()
	if err != nil {
		return nil, err
	}
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("field %q not present", name)
	}
	return v, nil
}

// MarshalJSON emits the raw document.
func (r Resource) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r Resource) String() string { return string(r) }
