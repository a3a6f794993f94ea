package dsl

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// Marshal produces the compact JSON encoding of v.
//
// Map keys are sorted (encoding/json does this for maps) and NFC-normalized,
// string values are written unchanged, and <, > and & are written
// literally. Two fragments that compare equal always marshal to identical
// bytes.
func Marshal(v any) ([]byte, error) {
	return encode(v, "")
}

// MarshalIndent is Marshal with two-space indentation. Output ends with a
// trailing newline, matching what golden files store.
func MarshalIndent(v any) ([]byte, error) {
	out, err := encode(v, "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(normalize(v)); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// normalize returns a copy of v with object keys in NFC. Keys are field
// paths; string values are operands and go out byte for byte, since term,
// prefix and wildcard queries on keyword fields compare raw bytes.
func normalize(v any) any {
	switch val := v.(type) {
	case Object:
		return normalizeMap(val)
	case map[string]any:
		return normalizeMap(val)
	case []Object:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, elem := range m {
		out[norm.NFC.String(k)] = normalize(elem)
	}
	return out
}

// Decode parses a JSON object into an Object, keeping numbers as
// json.Number so they round-trip without float conversion.
func Decode(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return Object(out), nil
}
