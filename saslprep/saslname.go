package saslprep

import (
	"strings"

	sasl "github.com/dequbed/rsasl-sub002"
)

// EscapeSaslname applies the SCRAM saslname lexical transform:
// "," becomes "=2C" and "=" becomes "=3D". Any other byte, including raw
// NUL, passes through unchanged — EscapeSaslname never fails, since every
// input has a valid escaped form.
func EscapeSaslname(s string) string {
	if !strings.ContainsAny(s, ",=") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',':
			b.WriteString("=2C")
		case '=':
			b.WriteString("=3D")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// UnescapeSaslname reverses EscapeSaslname. It rejects an embedded NUL, an
// embedded raw comma (a saslname may never contain one unescaped — that is
// the whole point of the transform), or a lone "=" not immediately followed
// by "2C" or "3D".
func UnescapeSaslname(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case 0:
			return "", &sasl.Error{Code: sasl.CodeMechanismParseError, Message: "saslname contains NUL"}
		case ',':
			return "", &sasl.Error{Code: sasl.CodeMechanismParseError, Message: "saslname contains unescaped comma"}
		case '=':
			if i+2 >= len(s) {
				return "", &sasl.Error{Code: sasl.CodeMechanismParseError, Message: "saslname ends in incomplete escape"}
			}
			switch s[i+1 : i+3] {
			case "2C":
				b.WriteByte(',')
			case "3D":
				b.WriteByte('=')
			default:
				return "", &sasl.Error{Code: sasl.CodeMechanismParseError, Message: "saslname contains invalid escape"}
			}
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
