package media

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var errMalformedURI = errors.New("malformed URI sequence")

// uriReserved are left percent-encoded by decodeURI.
const uriReserved = ";/?:@&=+$,#"

// uriUnescaped are the characters encodeURI leaves alone besides letters
// and digits.
const uriUnescaped = ";/?:@&=+$,#-_.!~*'()"

// NormalizeURL re-encodes a media URL so that already-encoded and raw forms
// compare equal: "/videos/my clip.mp4" and "/videos/my%20clip.mp4" both
// become the latter. Malformed escapes are encoded as-is.
func NormalizeURL(u string) string {
	if u == "" {
		return u
	}
	decoded, err := decodeURI(u)
	if err != nil {
		return encodeURI(u)
	}
	return encodeURI(decoded)
}

func encodeURI(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) || strings.IndexByte(uriUnescaped, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

// decodeURI decodes percent escapes except those that encode a reserved
// character, and fails on truncated escapes or invalid UTF-8.
func decodeURI(s string) (string, error) {
	var b strings.Builder
	var pending []byte
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if !utf8.Valid(pending) {
			return errMalformedURI
		}
		b.Write(pending)
		pending = pending[:0]
		return nil
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			if err := flush(); err != nil {
				return "", err
			}
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return "", errMalformedURI
		}
		c := unhex(s[i+1])<<4 | unhex(s[i+2])
		if c < 0x80 && strings.IndexByte(uriReserved, c) >= 0 {
			if err := flush(); err != nil {
				return "", err
			}
			b.WriteString(s[i : i+3])
		} else {
			pending = append(pending, c)
		}
		i += 2
	}
	if err := flush(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func isAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
