package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute and struct field names whose values never
// reach a log sink. Matching is exact, so both spellings are listed.
var sensitiveFields = []string{
	"password", "secret", "token", "credential", "credentials",
	"authorization", "cookie", "session",
	"apiKey", "apikey", "api_key", "api_keys", "x-api-key",
	"key_hash", "KeyHash",
	"dsn", "DSN",
}

var (
	// dsnPattern matches connection strings with inline credentials, e.g.
	// postgres://quotes:pw@db:5432/quotes.
	dsnPattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://[^/:@\s]+:[^@\s]+@`)

	// authSchemePattern matches Authorization header values.
	authSchemePattern = regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`)

	// bcryptPattern matches bcrypt hashes of configured API keys.
	bcryptPattern = regexp.MustCompile(`^\$2[abxy]?\$\d{2}\$[./A-Za-z0-9]{53}$`)
)

// DefaultRedactOptions returns the masq options for secret redaction: the
// sensitive field names, any secret-prefixed field, and values that look
// like credentialed DSNs, auth headers or bcrypt hashes.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+5)

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(dsnPattern),
		masq.WithRegex(authSchemePattern),
		masq.WithRegex(bcryptPattern),
	)
}

// NewReplaceAttr creates a slog ReplaceAttr function that redacts the
// attributes matched by DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
