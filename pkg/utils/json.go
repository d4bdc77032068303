package utils

import (
	"bytes"
	"encoding/json"
	"io"
)

// ExtraDataAfterJSONError is returned when the input contains data after the
// first JSON value.
type ExtraDataAfterJSONError struct{}

func (e *ExtraDataAfterJSONError) Error() string {
	return "extra data after JSON object"
}

// ToJSON serializes a value to JSON without escaping HTML.
func ToJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encoder always appends a trailing newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ToJSONIndent serializes a value to indented JSON without escaping HTML.
func ToJSONIndent(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ToJSONStream serializes a value as JSON directly to a writer.
func ToJSONStream(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// ToJSONStreamIndent serializes a value as indented JSON directly to a writer.
func ToJSONStreamIndent(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// FromJSON deserializes a single JSON value. Unknown fields and trailing data
// are rejected. Empty input yields the zero value.
//
//nolint:ireturn // Generic functions must return type parameter T
func FromJSON[T any](data []byte) (T, error) {
	var zero T

	if len(data) == 0 {
		return zero, nil
	}

	res, err := FromJSONStream[T](bytes.NewReader(data))
	if err != nil {
		return zero, err
	}

	return res, nil
}

// FromJSONStream deserializes a single JSON value from a reader. Unknown
// fields and trailing data are rejected; trailing whitespace is fine.
//
//nolint:ireturn // Generic functions must return type parameter T
func FromJSONStream[T any](r io.Reader) (T, error) {
	var res T

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&res); err != nil {
		var zero T

		return zero, err
	}

	// Anything but EOF after the first value means a second value follows
	if _, err := dec.Token(); err != io.EOF {
		var zero T

		return zero, &ExtraDataAfterJSONError{}
	}

	return res, nil
}
