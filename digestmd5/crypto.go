package digestmd5

import (
	"crypto/md5"

	sasl "github.com/dequbed/rsasl-sub002"
	"github.com/dequbed/rsasl-sub002/internal/csprng"
	"github.com/dequbed/rsasl-sub002/internal/wire"
)

func wrapCrypto(err error) error {
	return &sasl.Error{Code: sasl.CodeCryptoError, Message: err.Error()}
}

// cnonceBytes and serverNonceBytes are the raw entropy sizes fed to base64
// before becoming the wire nonce/cnonce strings.
const (
	cnonceBytes     = 16
	serverNonceBytes = 16
)

func randomCNonce() ([]byte, error) {
	raw, err := csprng.Bytes(cnonceBytes)
	if err != nil {
		return nil, wrapCrypto(err)
	}
	return []byte(wire.EncodeBase64(raw)), nil
}

func randomServerNonce() ([]byte, error) {
	raw, err := csprng.Bytes(serverNonceBytes)
	if err != nil {
		return nil, wrapCrypto(err)
	}
	return []byte(wire.EncodeBase64(raw)), nil
}

// clientSigningConst and serverSigningConst are the exact RFC 2831 §2.3
// magic strings used to derive the per-direction integrity keys.
const (
	clientSigningConst = "Digest session key to client-to-server signing key magic constant"
	serverSigningConst = "Digest session key to server-to-client signing key magic constant"
	clientSealingConst = "Digest H(A1) to client-to-server sealing key magic constant"
	serverSealingConst = "Digest H(A1) to server-to-client sealing key magic constant"
)

func md5Sum(parts ...[]byte) [16]byte {
	h := md5.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// secret computes SS = H(user ":" realm ":" password)
func secret(user, realm, password string) [16]byte {
	return md5Sum([]byte(user), []byte(":"), []byte(realm), []byte(":"), []byte(password))
}

// responseInputs bundles the values the HMAC-response computation is a
// pure function of.
type responseInputs struct {
	Secret    [16]byte
	Nonce     []byte
	CNonce    []byte
	NC        uint32
	AuthZID   string // empty if absent
	DigestURI string
	QOP       QOP
	RspAuth   bool // true: compute rspauth (A2 has no "AUTHENTICATE:" prefix)
}

// computeA1 returns H(A1), the 16-byte MD5-session key shared by both the
// response and the rspauth/integrity-key derivations.
func computeA1(in responseInputs) [16]byte {
	parts := [][]byte{in.Secret[:], []byte(":"), in.Nonce, []byte(":"), in.CNonce}
	if in.AuthZID != "" {
		parts = append(parts, []byte(":"), []byte(in.AuthZID))
	}
	return md5Sum(parts...)
}

// computeResponse computes the HMAC-response: A1, A2, then one KD(...)
// application over their hashes, returning 32 lowercase hex digits.
func computeResponse(in responseInputs) string {
	ha1 := computeA1(in)

	var a2 []byte
	if !in.RspAuth {
		a2 = append(a2, []byte("AUTHENTICATE:")...)
	} else {
		a2 = append(a2, ':')
	}
	a2 = append(a2, []byte(in.DigestURI)...)
	if in.QOP == QOPAuthInt || in.QOP == QOPAuthConf {
		a2 = append(a2, []byte(":00000000000000000000000000000000")...)
	}
	ha2 := md5Sum(a2)

	qopStr := in.QOP.String()
	if qopStr == "" {
		qopStr = "auth"
	}

	// KD(K, S) = hex(MD5(K || ":" || S))
	// Here K = hex(H(A1)), S = nonce-value:hex8(nc):cnonce-value:qop:hex(A2)
	// (nonce/cnonce are the raw unq(...) byte strings, not hex-encoded).
	k := []byte(wire.EncodeHex(ha1[:]))
	s := append([]byte{}, in.Nonce...)
	s = append(s, ':')
	s = append(s, []byte(wire.Hex8(in.NC))...)
	s = append(s, ':')
	s = append(s, in.CNonce...)
	s = append(s, ':')
	s = append(s, []byte(qopStr)...)
	s = append(s, ':')
	s = append(s, []byte(wire.EncodeHex(ha2[:]))...)

	kd := md5Sum(k, []byte(":"), s)
	return wire.EncodeHex(kd[:])
}

// integrityKeys holds the two per-direction keys used for auth-int framing
// (Kic, Kis; kept distinct from confidentiality keys, which this
// implementation never derives since auth-conf is unsupported).
type integrityKeys struct {
	Kic [16]byte // client-to-server signing (integrity)
	Kis [16]byte // server-to-client signing (integrity)
}

func deriveIntegrityKeys(ha1 [16]byte) integrityKeys {
	return integrityKeys{
		Kic: md5Sum(ha1[:], []byte(clientSigningConst)),
		Kis: md5Sum(ha1[:], []byte(serverSigningConst)),
	}
}
