// Package fieldcodec converts the structured title fields (genre lists,
// season maps) to and from the JSON text encoding used at rest.
//
// Decoding is total: malformed stored text degrades to the zero value rather
// than failing the read.
package fieldcodec

import (
	"database/sql"
	"encoding/json"
)

// Encode returns the JSON encoding of v as a nullable string. Nil slices,
// nil maps and nil pointers encode to SQL NULL, matching an absent field.
func Encode[T any](v T) sql.NullString {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	if string(data) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

// Decode parses a stored JSON field into T. NULL, empty, or unparsable text
// yields the zero value of T.
func Decode[T any](s sql.NullString) T {
	var v T
	if !s.Valid || s.String == "" {
		return v
	}
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		var zero T
		return zero
	}
	return v
}
