package omit

import (
	"encoding/json"
)

func New[T any](value T) Omit[T] {
	return Omit[T]{
		Value: value,
		OK:    true,
	}
}

// Omit distinguishes a json field that was absent from one that was sent with its zero value.
type Omit[T any] struct {
	Value T
	OK    bool
}

func (o Omit[T]) IsZero() bool {
	return !o.OK
}

// Or returns the value when it was set and fallback otherwise.
func (o Omit[T]) Or(fallback T) T {
	if o.OK {
		return o.Value
	}
	return fallback
}

func (o Omit[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

func (o *Omit[T]) UnmarshalJSON(data []byte) error {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	o.Value = value
	o.OK = true

	return nil
}
