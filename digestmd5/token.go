// Package digestmd5 implements the DIGEST-MD5 SASL mechanism (RFC 2831): a
// multi-round HTTP-Digest-style challenge/response with quality-of-protection
// negotiation and a post-authentication integrity layer.
package digestmd5

// QOP is a bitmask of the three quality-of-protection levels DIGEST-MD5
// negotiates.
type QOP uint8

const (
	QOPAuth QOP = 1 << iota
	QOPAuthInt
	QOPAuthConf
)

func (q QOP) String() string {
	switch q {
	case QOPAuth:
		return "auth"
	case QOPAuthInt:
		return "auth-int"
	case QOPAuthConf:
		return "auth-conf"
	default:
		return ""
	}
}

func qopFromString(s string) (QOP, bool) {
	switch s {
	case "auth":
		return QOPAuth, true
	case "auth-int":
		return QOPAuthInt, true
	case "auth-conf":
		return QOPAuthConf, true
	// Deprecated legacy aliases kept for compatibility with older clients.
	case "qop-auth":
		return QOPAuth, true
	case "qop-int":
		return QOPAuthInt, true
	default:
		return 0, false
	}
}

// Cipher is a bitmask of the ciphers a DIGEST-MD5 challenge may advertise
// for auth-conf. This implementation never negotiates auth-conf, so Cipher
// only round-trips through the grammar.
type Cipher uint8

const (
	CipherDES Cipher = 1 << iota
	Cipher3DES
	CipherRC4
	CipherRC440
	CipherRC456
	CipherAESCBC
)

var cipherNames = []struct {
	bit  Cipher
	name string
}{
	{CipherDES, "des"},
	{Cipher3DES, "3des"},
	{CipherRC4, "rc4"},
	{CipherRC440, "rc4-40"},
	{CipherRC456, "rc4-56"},
	{CipherAESCBC, "aes-cbc"},
}

func cipherFromString(s string) (Cipher, bool) {
	for _, c := range cipherNames {
		if c.name == s {
			return c.bit, true
		}
	}
	return 0, false
}

// Challenge is the server-to-client DIGEST-MD5 challenge token.
type Challenge struct {
	Realms  []string // order preserved, possibly empty
	Nonce   []byte
	QOPs    QOP
	Stale   bool
	MaxBuf  uint32
	UTF8    bool
	Ciphers Cipher
}

// Response is the client-to-server DIGEST-MD5 response token.
type Response struct {
	Username  string
	Realm     string // empty if the challenge offered none
	Nonce     []byte // copied from the challenge
	CNonce    []byte
	NC        uint32
	QOP       QOP // exactly one bit
	DigestURI string
	MaxBuf    uint32
	UTF8      bool
	Cipher    Cipher // at most one bit
	AuthZID   string
	Response  string // 32 lowercase hex digits
}

// Finish is the server-to-client DIGEST-MD5 finish token.
type Finish struct {
	RspAuth string // 32 lowercase hex digits
}
