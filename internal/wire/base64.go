// Package wire provides the small base64/hex helpers DIGEST-MD5 and SCRAM
// both need for their wire grammar.
package wire

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64 tolerates embedded whitespace (RFC 4648 §3.3 permits a
// non-strict decoder to skip it) before delegating to the standard
// alphabet with "=" padding.
func DecodeBase64(s string) ([]byte, error) {
	if strings.ContainsAny(s, " \t\r\n") {
		s = stripWhitespace(s)
	}
	return base64.StdEncoding.DecodeString(s)
}

// EncodeBase64 encodes using the standard alphabet with "=" padding.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
