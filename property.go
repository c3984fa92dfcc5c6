package sasl

// Property names a session attribute: a credential, a piece of transport
// context, or a value a server-side mechanism derives and wants the
// application to persist for next time.
type Property int

const (
	PropAuthID Property = iota
	PropAuthZID
	PropPassword
	PropAnonymousToken
	PropService
	PropHostname
	PropRealm
	PropQOPs
	PropQOP
	PropDigestMD5HashedPassword
	PropScramIter
	PropScramSalt
	PropScramSaltedPassword
	PropScramServerKey
	PropScramStoredKey
	PropCBTLSUnique

	// Validation keys: set by a server-side mechanism on a completed
	// exchange to ask the application to approve it.
	PropValidateSimple

	propCount
)

var propertyNames = map[Property]string{
	PropAuthID:                  "AUTHID",
	PropAuthZID:                 "AUTHZID",
	PropPassword:                "PASSWORD",
	PropAnonymousToken:          "ANONYMOUS_TOKEN",
	PropService:                 "SERVICE",
	PropHostname:                "HOSTNAME",
	PropRealm:                   "REALM",
	PropQOPs:                    "QOPS",
	PropQOP:                     "QOP",
	PropDigestMD5HashedPassword: "DIGEST_MD5_HASHED_PASSWORD",
	PropScramIter:               "SCRAM_ITER",
	PropScramSalt:               "SCRAM_SALT",
	PropScramSaltedPassword:     "SCRAM_SALTED_PASSWORD",
	PropScramServerKey:          "SCRAM_SERVERKEY",
	PropScramStoredKey:          "SCRAM_STOREDKEY",
	PropCBTLSUnique:             "CB_TLS_UNIQUE",
	PropValidateSimple:          "VALIDATE_SIMPLE",
}

func (p Property) String() string {
	if n, ok := propertyNames[p]; ok {
		return n
	}
	return "UNKNOWN_PROPERTY"
}

// noValueCode is the Code Get returns for a given Property when no callback
// is installed, or when the callback returns nil without setting the key.
func noValueCode(p Property) Code {
	switch p {
	case PropAuthID:
		return CodeNoAuthID
	case PropAuthZID:
		return CodeNoAuthZID
	case PropPassword, PropDigestMD5HashedPassword, PropScramSaltedPassword:
		return CodeNoPassword
	case PropAnonymousToken:
		return CodeNoAnonymousToken
	case PropService:
		return CodeNoService
	case PropHostname:
		return CodeNoHostname
	case PropCBTLSUnique:
		return CodeNoCBTLSUnique
	default:
		return CodeAuthenticationError
	}
}

// Callback supplies a property on demand. It is invoked from inside
// [Session.Get] when the requested key is unset; it is expected to call
// [Session.Set] for that key and return nil, or return an error to refuse;
// Get returns that error to the mechanism unchanged.
//
// The callback may call Set on the same session. Get refuses a nested
// property lookup made from inside the callback with a re-entrancy counter;
// Step, Encode and Decode do not consult that counter.
type Callback func(s *Session, key Property) error

// propertyBag is a mapping from the fixed Property enumeration to owned
// byte strings. Re-setting a key replaces (and, in a GC'd runtime, simply
// drops) the prior value; values are never assumed NUL-free since SCRAM
// channel-binding data is binary.
type propertyBag struct {
	values map[Property][]byte
}

func newPropertyBag() *propertyBag {
	return &propertyBag{values: make(map[Property][]byte, 8)}
}

func (b *propertyBag) set(key Property, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	b.values[key] = cp
}

func (b *propertyBag) get(key Property) ([]byte, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *propertyBag) getString(key Property) (string, bool) {
	v, ok := b.get(key)
	if !ok {
		return "", false
	}
	return string(v), true
}
