package source

import "fmt"

const redacted = "[redacted]"

// Credentials is an opaque secret handed to sources. Its value can only be read through Reveal;
// every formatting and encoding path renders it redacted.
type Credentials struct {
	secret string
}

// NewCredentials wraps secret.
func NewCredentials(secret string) Credentials {
	return Credentials{secret: secret}
}

// Reveal returns the wrapped secret.
func (c Credentials) Reveal() string {
	return c.secret
}

// IsZero reports whether no secret is set.
func (c Credentials) IsZero() bool {
	return c.secret == ""
}

func (c Credentials) String() string {
	return redacted
}

func (c Credentials) GoString() string {
	return "source.Credentials{" + redacted + "}"
}

// Format implements fmt.Formatter so that verbs such as %x or %q cannot leak the secret.
func (c Credentials) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = fmt.Fprint(f, c.GoString())

		return
	}
	_, _ = fmt.Fprint(f, redacted)
}

// MarshalJSON implements json.Marshaler.
func (c Credentials) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText implements encoding.TextMarshaler, which yaml and toml encoders honor.
func (c Credentials) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
