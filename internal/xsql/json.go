package xsql

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

var (
	_ sql.Scanner   = (*JSON[any])(nil)
	_ driver.Valuer = (*JSON[any])(nil)
)

func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{V: v}
}

// JSON stores V as a json document. Postgres reads it back as []byte (jsonb), sqlite as string (TEXT).
type JSON[T any] struct {
	V T
}

func (j JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSON[T]) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		var zero T
		j.V = zero
		return nil
	default:
		return fmt.Errorf("unsupported type %T for JSON scan", src)
	}

	return json.Unmarshal(b, &j.V)
}
