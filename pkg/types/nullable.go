package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// Nullable distinguishes an absent JSON field (Valid false) from an
// explicit null (Valid true, Value nil) in partial updates.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

// NullableUUID is the patch form of an optional foreign key.
type NullableUUID = Nullable[uuid.UUID]

// Some marks v as explicitly set.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Valid: true, Value: &v}
}

// Null marks the field as explicitly cleared.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Valid: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	n.Valid = true
	if bytes.Equal(trimmed, []byte("null")) {
		n.Value = nil
		return nil
	}

	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		n.Valid = false
		return err
	}
	n.Value = &parsed
	return nil
}

// Apply returns the patched value: current when the field was absent,
// otherwise a copy of the sent value (nil for an explicit null).
func (n Nullable[T]) Apply(current *T) *T {
	if !n.Valid {
		return current
	}
	if n.Value == nil {
		return nil
	}
	v := *n.Value
	return &v
}
