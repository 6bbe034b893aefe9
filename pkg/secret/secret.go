// Package secret provides a string type for credential material that refuses
// to render its value through fmt, encoding/json, or log/slog.
//
// The only way to read the underlying value is Expose, which should be called
// at the point a request is built and nowhere else.
package secret

import (
	"fmt"
	"log/slog"
)

// Redacted is the placeholder rendered in place of a secret value.
const Redacted = "[REDACTED]"

// String holds a secret value such as an API key.
// The zero value is an empty secret.
type String struct {
	value string
}

// New wraps value as a secret.
func New(value string) String {
	return String{value: value}
}

// Expose returns the underlying secret value.
func (s String) Expose() string {
	return s.value
}

// IsEmpty reports whether the secret holds no value.
func (s String) IsEmpty() bool {
	return s.value == ""
}

// String implements fmt.Stringer.
func (s String) String() string {
	if s.value == "" {
		return ""
	}
	return Redacted
}

// GoString implements fmt.GoStringer so %#v does not leak the value.
func (s String) GoString() string {
	return "secret.String(" + s.String() + ")"
}

// Format implements fmt.Formatter. Every verb renders the redacted form.
func (s String) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = fmt.Fprint(f, s.GoString())
		return
	}
	_, _ = fmt.Fprint(f, s.String())
}

// MarshalJSON implements json.Marshaler.
func (s String) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s String) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LogValue implements slog.LogValuer.
func (s String) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
