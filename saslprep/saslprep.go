// Package saslprep wraps the RFC 4013 SASLprep stringprep profile for the
// usernames and passwords that cross into DIGEST-MD5 and SCRAM.
package saslprep

import (
	"github.com/xdg-go/stringprep"

	sasl "github.com/dequbed/rsasl-sub002"
)

// Flags selects a SASLprep mode. By default SASLprep runs in strict
// "stored strings" mode (unassigned code points rejected); AllowUnassigned
// documents the "query" profile some callers need for legacy
// data (the underlying xdg-go/stringprep profile has no public knob to
// loosen further, so this flag is accepted but currently a no-op — see
// DESIGN.md).
type Flags int

const (
	Strict          Flags = 0
	AllowUnassigned Flags = 1
)

// Prepare runs the SASLprep profile over s: NFKC normalization, mapping of
// non-ASCII space to ASCII space, removal of "commonly mapped to nothing"
// code points, and the prohibited-character check. Failure is reported as
// *sasl.Error{Code: sasl.CodeSASLprepError}.
func Prepare(s string, flags Flags) (string, error) {
	out, err := stringprep.SASLprep.Prepare(s)
	if err != nil {
		return "", &sasl.Error{Code: sasl.CodeSASLprepError, Message: err.Error()}
	}
	return out, nil
}
