// Package casing decodes backend JSON objects whose keys may arrive in either
// camelCase or PascalCase. It is the single place where both spellings are
// accepted; callers map the result into one canonical struct.
package casing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Fields is a decoded JSON object with case-tolerant lookups.
type Fields map[string]json.RawMessage

// Decode parses raw as a JSON object. A JSON null yields an empty Fields.
func Decode(raw []byte) (Fields, error) {
	f := Fields{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if f == nil {
		f = Fields{}
	}
	return f, nil
}

// Pascal returns key with its first rune upper-cased.
func Pascal(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// Raw returns the value stored under the camelCase key, falling back to the
// PascalCase spelling. JSON nulls count as absent.
func (f Fields) Raw(key string) (json.RawMessage, bool) {
	for _, k := range []string{key, Pascal(key)} {
		v, ok := f[k]
		if ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether either spelling of key is present and non-null.
func (f Fields) Has(key string) bool {
	_, ok := f.Raw(key)
	return ok
}

// String returns the string under key. Numbers are rendered verbatim so that
// numeric ids survive; other shapes yield "".
func (f Fields) String(key string) string {
	v, ok := f.Raw(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

// Bool returns the boolean under key, or false.
func (f Fields) Bool(key string) bool {
	v, ok := f.Raw(key)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false
	}
	return b
}

// Int returns the integer under key, or 0.
func (f Fields) Int(key string) int64 {
	v, ok := f.Raw(key)
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0
	}
	return n
}

// Strings returns the string list under key. Absent or malformed values yield
// an empty, non-nil slice.
func (f Fields) Strings(key string) []string {
	out := []string{}
	v, ok := f.Raw(key)
	if !ok {
		return out
	}
	var list []string
	if err := json.Unmarshal(v, &list); err != nil {
		return out
	}
	return append(out, list...)
}

// Time parses an RFC 3339 timestamp under key. A missing or unparsable value
// returns nil.
func (f Fields) Time(key string) *time.Time {
	s := strings.TrimSpace(f.String(key))
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Object decodes the nested object under key.
func (f Fields) Object(key string) Fields {
	v, ok := f.Raw(key)
	if !ok {
		return Fields{}
	}
	nested, err := Decode(v)
	if err != nil {
		return Fields{}
	}
	return nested
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
