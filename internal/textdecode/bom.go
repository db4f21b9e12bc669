package textdecode

import (
	"golang.org/x/text/encoding/unicode"
)

// bomOverride sniffs a byte order mark. When one is found it returns the
// input without the mark and the decoder the mark dictates, otherwise the
// input unchanged and fallback.
func bomOverride(b []byte, fallback decoder) ([]byte, decoder) {
	switch {
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return b[3:], unicode.UTF8.NewDecoder()
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		return b[2:], unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		return b[2:], unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	}
	return b, fallback
}
