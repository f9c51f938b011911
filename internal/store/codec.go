package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
)

var (
	errTrailingData = errors.New("unexpected data after stored value")
	errNullValue    = errors.New("stored value is null")
)

// encode returns the canonical byte encoding of v.
func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// decode strictly decodes data into out. Fields unknown to out and trailing
// values are rejected so a value stored with a different shape is reported
// instead of being partially filled.
//
// A stored null only decodes into targets that can represent it (pointers,
// interfaces, maps and slices); anything else would silently keep its zero
// value.
func decode(data []byte, out any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) && !nullable(out) {
		return errNullValue
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// nullable reports whether the value out points to can hold a JSON null.
func nullable(out any) bool {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Pointer {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
