package sr

import (
	"bytes"
	"encoding/json"
)

// Sequence is a DICOM sequence in naturalized JSON. Producers emit a bare
// object when a sequence has one item and an array otherwise, so both decode.
type Sequence[T any] []T

// UnmarshalJSON accepts an object, an array or null
func (s *Sequence[T]) UnmarshalJSON(data []byte) error {
	items, err := asSequence[T](data)
	if err != nil {
		return err
	}
	*s = items
	return nil
}

// First returns the first item and whether there was one
func (s Sequence[T]) First() (T, bool) {
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	return s[0], true
}

// asSequence normalizes T | []T | null into []T
func asSequence[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, err
	}
	return []T{item}, nil
}
