package scram

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

func (h HashAlg) new() func() hash.Hash {
	if h == SHA256 {
		return sha256.New
	}
	return sha1.New
}

func (h HashAlg) sum(data []byte) []byte {
	if h == SHA256 {
		s := sha256.Sum256(data)
		return s[:]
	}
	s := sha1.Sum(data)
	return s[:]
}

func (h HashAlg) hmac(key, data []byte) []byte {
	m := hmac.New(h.new(), key)
	m.Write(data)
	return m.Sum(nil)
}

// saltedPassword computes Hi(password, salt, iters) = PBKDF2-HMAC-H.
func (h HashAlg) saltedPassword(password string, salt []byte, iters int) []byte {
	return pbkdf2.Key([]byte(password), salt, iters, h.hashLen(), h.new())
}

// clientKey, storedKey, serverKey derive the three keys SCRAM needs from
// SaltedPassword.
func (h HashAlg) clientKey(saltedPassword []byte) []byte {
	return h.hmac(saltedPassword, []byte("Client Key"))
}

func (h HashAlg) storedKey(clientKey []byte) []byte {
	return h.sum(clientKey)
}

func (h HashAlg) serverKey(saltedPassword []byte) []byte {
	return h.hmac(saltedPassword, []byte("Server Key"))
}

// clientSignature computes HMAC-H(StoredKey, AuthMessage).
func (h HashAlg) clientSignature(storedKey, authMessage []byte) []byte {
	return h.hmac(storedKey, authMessage)
}

// serverSignature computes HMAC-H(ServerKey, AuthMessage).
func (h HashAlg) serverSignature(serverKey, authMessage []byte) []byte {
	return h.hmac(serverKey, authMessage)
}

// xorBytes XORs a and b, which must be equal length, into a fresh slice.
func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// clientProof computes ClientKey XOR ClientSignature.
func (h HashAlg) clientProof(clientKey, clientSignature []byte) []byte {
	return xorBytes(clientKey, clientSignature)
}

// recoverClientKey reverses clientProof: ClientProof XOR ClientSignature =
// ClientKey, used server-side where only the proof (not the key) is known.
func (h HashAlg) recoverClientKey(proof, clientSignature []byte) []byte {
	return xorBytes(proof, clientSignature)
}
