package textdecode

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// utf8Override decodes valid UTF-8 as UTF-8 and hands everything else to
// Fallback, so a legacy-encoded body does not turn into replacement runes.
type utf8Override struct {
	Fallback decoder
}

func (u utf8Override) Bytes(b []byte) ([]byte, error) {
	if utf8.Valid(b) {
		return unicode.UTF8.NewDecoder().Bytes(b)
	}
	return u.Fallback.Bytes(b)
}
