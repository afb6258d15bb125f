// SPDX-License-Identifier: MPL-2.0

package semmerge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses JSON into a canonical value tree, keeping numbers verbatim.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode canonical value: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode canonical value: trailing data after document")
	}
	return v, nil
}

// Encode renders v as indented JSON with a final newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode canonical value: %w", err)
	}
	return buf.Bytes(), nil
}

// Equal reports whether a and b are the same canonical tree. Numbers compare
// by their JSON text.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case json.Number:
		switch y := b.(type) {
		case json.Number:
			return x == y
		case float64:
			f, err := x.Float64()
			return err == nil && f == y
		}
		return false
	case float64:
		if y, ok := b.(json.Number); ok {
			return Equal(y, x)
		}
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case nil:
		return b == nil
	}
	return false
}
