// Package aload reads allocation lists from JSON.
//
// The expected document is an array of objects:
//
//	[
//	  {"address": "0x1234", "amount": 150, "timestamp": "0x2", "id": 1},
//	  ...
//	]
//
// Unknown keys are ignored.
// The amount and id must be non-negative integers that fit in 64 bits;
// they are parsed from the raw JSON text, so large values are not rounded.
package aload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gordian-engine/allotree/arecord"
	"github.com/tidwall/gjson"
)

// ErrNotArray is returned when the document is valid JSON but not an array.
var ErrNotArray = errors.New("allocation list must be a JSON array")

// FieldError describes a missing or mistyped field in one allocation.
type FieldError struct {
	Index int
	Field string
	Msg   string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("allocation %d: field %q: %s", e.Index, e.Field, e.Msg)
}

// ReadFile reads the allocation list at path.
func ReadFile(path string) ([]arecord.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allocation file: %w", err)
	}

	recs, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return recs, nil
}

// Read reads the entire allocation list from r.
func Read(r io.Reader) ([]arecord.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read allocations: %w", err)
	}
	return Parse(b)
}

// Parse parses an allocation list document.
// Records are returned in document order.
// The address and timestamp strings are returned unmodified;
// hex validation happens when the records are canonicalized.
func Parse(b []byte) ([]arecord.Record, error) {
	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid JSON")
	}

	doc := gjson.ParseBytes(b)
	if !doc.IsArray() {
		return nil, ErrNotArray
	}

	elems := doc.Array()
	out := make([]arecord.Record, len(elems))
	for i, v := range elems {
		if !v.IsObject() {
			return nil, fmt.Errorf("allocation %d: expected object, got %s", i, v.Type)
		}

		var err error
		if out[i].Address, err = stringField(i, v, "address"); err != nil {
			return nil, err
		}
		if out[i].Amount, err = uintField(i, v, "amount"); err != nil {
			return nil, err
		}
		if out[i].Timestamp, err = stringField(i, v, "timestamp"); err != nil {
			return nil, err
		}
		if out[i].ID, err = uintField(i, v, "id"); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func stringField(idx int, obj gjson.Result, name string) (string, error) {
	v := obj.Get(name)
	if !v.Exists() {
		return "", FieldError{Index: idx, Field: name, Msg: "missing"}
	}
	if v.Type != gjson.String {
		return "", FieldError{Index: idx, Field: name, Msg: "expected string, got " + v.Type.String()}
	}
	return v.Str, nil
}

func uintField(idx int, obj gjson.Result, name string) (uint64, error) {
	v := obj.Get(name)
	if !v.Exists() {
		return 0, FieldError{Index: idx, Field: name, Msg: "missing"}
	}
	if v.Type != gjson.Number {
		return 0, FieldError{Index: idx, Field: name, Msg: "expected number, got " + v.Type.String()}
	}

	n, err := strconv.ParseUint(v.Raw, 10, 64)
	if err != nil {
		return 0, FieldError{Index: idx, Field: name, Msg: "not an unsigned 64-bit integer: " + v.Raw}
	}
	return n, nil
}
