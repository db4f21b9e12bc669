// Package textdecode converts response bodies in unknown encodings to
// plain UTF-8 strings with unified newlines, so content matching works the
// same whatever the server sent.
package textdecode

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// decoder turns raw bytes into UTF-8 bytes.
type decoder interface {
	Bytes(b []byte) ([]byte, error)
}

// Bytes decodes b into a UTF-8 string. The input is taken as UTF-8 unless a
// BOM says otherwise, with windows-1252 as the fallback for byte sequences
// that are not valid UTF-8.
func Bytes(b []byte) (string, error) {
	var dec decoder = utf8Override{charmap.Windows1252.NewDecoder()}
	b, dec = bomOverride(b, dec)

	s, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return normalizeNewline(string(s)), nil
}

// HTTPBody decodes an HTTP response body using the charset parameter of the
// Content-Type header when there is one. A BOM in the body wins over the
// header, and an unknown or missing charset falls back to Bytes.
func HTTPBody(b []byte, contentType string) (string, error) {
	if enc := headerEncoding(contentType); enc != nil {
		var dec decoder = enc.NewDecoder()
		body, dec := bomOverride(b, dec)
		if s, err := dec.Bytes(body); err == nil {
			return normalizeNewline(string(s)), nil
		}
	}
	return Bytes(b)
}

// headerEncoding resolves the charset parameter of a Content-Type header,
// or nil when the header carries no usable charset.
func headerEncoding(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}

	name := params["charset"]
	if name == "" {
		return nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	return enc
}

func normalizeNewline(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
