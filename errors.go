package sasl

import "fmt"

// Code is a stable numeric identifier for the outcome of a fallible SASL
// operation. Every [Error] carries exactly one Code, and the taxonomy is
// the one laid out for the core: protocol progress, caller misuse, missing
// credentials, malformed input, authentication outcome and resource
// failure.
type Code int

const (
	// CodeOK is never wrapped in an [Error]; [Session.Step] reports it
	// directly as a [Status].
	CodeOK Code = iota
	CodeNeedsMore

	CodeUnknownMechanism
	CodeMechanismCalledTooManyTimes
	CodeNoClientCode
	CodeNoServerCode
	CodeNoCallback

	CodeNoAuthID
	CodeNoAuthZID
	CodeNoPassword
	CodeNoAnonymousToken
	CodeNoService
	CodeNoHostname
	CodeNoCBTLSUnique
	CodeNoPasscode
	CodeNoPin

	CodeMechanismParseError
	CodeBase64Error
	CodeSASLprepError

	CodeAuthenticationError
	CodeIntegrityError

	CodeMallocError
	CodeCryptoError
)

var codeNames = map[Code]string{
	CodeOK:                          "OK",
	CodeNeedsMore:                   "NEEDS_MORE",
	CodeUnknownMechanism:            "UNKNOWN_MECHANISM",
	CodeMechanismCalledTooManyTimes: "MECHANISM_CALLED_TOO_MANY_TIMES",
	CodeNoClientCode:                "NO_CLIENT_CODE",
	CodeNoServerCode:                "NO_SERVER_CODE",
	CodeNoCallback:                  "NO_CALLBACK",
	CodeNoAuthID:                    "NO_AUTHID",
	CodeNoAuthZID:                   "NO_AUTHZID",
	CodeNoPassword:                  "NO_PASSWORD",
	CodeNoAnonymousToken:            "NO_ANONYMOUS_TOKEN",
	CodeNoService:                   "NO_SERVICE",
	CodeNoHostname:                  "NO_HOSTNAME",
	CodeNoCBTLSUnique:               "NO_CB_TLS_UNIQUE",
	CodeNoPasscode:                  "NO_PASSCODE",
	CodeNoPin:                       "NO_PIN",
	CodeMechanismParseError:         "MECHANISM_PARSE_ERROR",
	CodeBase64Error:                 "BASE64_ERROR",
	CodeSASLprepError:               "SASLPREP_ERROR",
	CodeAuthenticationError:         "AUTHENTICATION_ERROR",
	CodeIntegrityError:              "INTEGRITY_ERROR",
	CodeMallocError:                 "MALLOC_ERROR",
	CodeCryptoError:                 "CRYPTO_ERROR",
}

// Name returns the code's stable identifier, e.g. "NO_AUTHID".
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UNKNOWN_CODE"
}

func (c Code) String() string { return c.Name() }

// Error is the single error type returned by every fallible operation in
// this module. It always carries a [Code]; Message adds human-readable
// context and may be empty.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "sasl: " + e.Code.Name()
	}
	return fmt.Sprintf("sasl: %s: %s", e.Code.Name(), e.Message)
}

// Is allows errors.Is(err, sasl.ErrCode(sasl.CodeNoPassword)) style checks,
// and also lets two *Error values with the same Code compare equal.
func (e *Error) Is(target error) bool {
	if c, ok := target.(errCode); ok {
		return e.Code == Code(c)
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// errCode is a sentinel error type carrying only a Code, suitable for
// errors.Is comparisons.
type errCode Code

func (e errCode) Error() string { return Code(e).Name() }

func (e errCode) Is(target error) bool {
	if a, ok := target.(*Error); ok {
		return a.Code == Code(e)
	}
	if b, ok := target.(errCode); ok {
		return Code(e) == Code(b)
	}
	return false
}

// ErrCode returns a sentinel error usable with errors.Is to test whether an
// error returned from this module carries a particular [Code]:
//
//	if errors.Is(err, sasl.ErrCode(sasl.CodeNoPassword)) { ... }
func ErrCode(c Code) error { return errCode(c) }

func newErr(c Code, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: c, Message: msg}
}
