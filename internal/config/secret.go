package config

import (
	"encoding/json"
)

const redactedValue = "[REDACTED]"

// Secret wraps strings that should be redacted in logs and serialization.
// Use Value() to access the actual secret value.
type Secret string

// String implements fmt.Stringer and never reveals the value.
func (secret Secret) String() string {
	if secret == "" {
		return ""
	}
	return redactedValue
}

// GoString implements fmt.GoStringer for %#v formatting.
func (secret Secret) GoString() string {
	return "Secret(" + redactedValue + ")"
}

// Value returns the actual secret value.
func (secret Secret) Value() string {
	return string(secret)
}

// IsSet reports whether the secret holds a non-empty value.
func (secret Secret) IsSet() bool {
	return secret != ""
}

// MarshalJSON implements json.Marshaler and never reveals the value.
func (secret Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(secret.String())
}
