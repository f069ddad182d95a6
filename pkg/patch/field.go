// Package patch models JSON merge-patch fields, where an omitted key and an
// explicit null mean different things.
package patch

import (
	"bytes"
	"encoding/json"

	"github.com/samber/mo"
)

// Field is one PATCH body member. Present is false when the key was omitted;
// Value is None when the key was sent as null.
type Field[T any] struct {
	Present bool
	Value   mo.Option[T]
}

// Set builds a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: mo.Some(v)}
}

// Null builds a present field that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{Present: true, Value: mo.None[T]()}
}

// UnmarshalJSON is only invoked for keys present in the payload, including null ones.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = mo.None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = mo.Some(v)
	return nil
}

// MarshalJSON writes null for absent or cleared fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if v, ok := f.Value.Get(); ok && f.Present {
		return json.Marshal(v)
	}
	return []byte("null"), nil
}

// IsNull reports an explicit null.
func (f Field[T]) IsNull() bool {
	return f.Present && f.Value.IsAbsent()
}

// Apply writes the field onto a nullable target: omitted leaves it, null clears it.
func (f Field[T]) Apply(target **T) {
	if !f.Present {
		return
	}
	if v, ok := f.Value.Get(); ok {
		*target = &v
		return
	}
	*target = nil
}

// Ptr returns the value as a pointer, nil when omitted or null.
func (f Field[T]) Ptr() *T {
	if v, ok := f.Value.Get(); ok && f.Present {
		return &v
	}
	return nil
}
