// Package format turns typed values into tree formats consumed outside the
// engine.
//
// MarshalCanonical produces RFC 8785 style canonical JSON, so hydrating the
// same data twice yields byte-identical output:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping, no insignificant whitespace
//   - strings NFC normalized
//   - numbers written with their exact decimal digits
package format

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/spruceid/treeldr-sub002/internal/typed"
	"github.com/spruceid/treeldr-sub002/internal/value"
)

// MarshalCanonical encodes v as canonical JSON.
//
// Records become objects, lists arrays, variants their inner value, byte
// strings base64 strings and ids IRI strings. Always and constant-less units
// become null.
func MarshalCanonical(v typed.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTyped(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTyped(buf *bytes.Buffer, v typed.Value) error {
	switch v := v.(type) {
	case nil, typed.Always:
		buf.WriteString("null")
	case typed.Unit:
		if v.Const == nil {
			buf.WriteString("null")
			return nil
		}
		return writeValue(buf, v.Const)
	case typed.Boolean:
		writeBool(buf, v.Value)
	case typed.Number:
		buf.WriteString(v.Value.String())
	case typed.ByteString:
		writeString(buf, base64.StdEncoding.EncodeToString(v.Value))
	case typed.TextString:
		writeString(buf, v.Value)
	case typed.ID:
		writeString(buf, v.IRI)
	case typed.Variant:
		return writeTyped(buf, v.Value)
	case typed.Record:
		buf.WriteByte('{')
		for i, k := range sortedKeys(v.Fields) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeTyped(buf, v.Fields[k]); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case typed.List:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeTyped(buf, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported typed value %T", v)
	}
	return nil
}

// writeValue encodes an untyped value. Bare resources have no tree
// representation.
func writeValue(buf *bytes.Buffer, v value.Value) error {
	switch v := v.(type) {
	case value.Unit:
		buf.WriteString("null")
	case value.Boolean:
		writeBool(buf, bool(v))
	case value.Number:
		buf.WriteString(v.String())
	case value.ByteString:
		writeString(buf, base64.StdEncoding.EncodeToString(v))
	case value.TextString:
		writeString(buf, string(v))
	case value.Map:
		buf.WriteByte('{')
		for i, k := range sortedKeys(v) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeValue(buf, v[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case value.List:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("value %s has no tree representation", v)
	}
	return nil
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
}

// writeString writes a canonical JSON string: only quote, backslash and
// control characters are escaped.
func writeString(buf *bytes.Buffer, s string) {
	const hexDigits = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xf])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// sortedKeys returns map keys in RFC 8785 order (UTF-16 code units), which
// differs from Go's UTF-8 byte order for supplementary characters.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// MarshalAny encodes a generic tree as canonical JSON. Typed values may
// appear at any position; other leaves are nil, bool, string, json.Number
// and Go integers.
func MarshalAny(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeAny(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAny(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case typed.Value:
		return writeTyped(buf, v)
	case bool:
		writeBool(buf, v)
	case string:
		writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case int:
		buf.WriteString(strconv.Itoa(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(v) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeAny(buf, v[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeAny(buf, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported type %T", v)
	}
	return nil
}

// ToAny converts v into the generic tree produced by encoding/json
// decoding: map[string]any, []any, string, bool, json.Number and nil.
// It is used to embed hydrated values in larger JSON documents.
func ToAny(v typed.Value) (any, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode canonical json: %w", err)
	}
	return out, nil
}
