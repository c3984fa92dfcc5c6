package digestmd5

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/binary"

	sasl "github.com/dequbed/rsasl-sub002"
)

// macLen is the truncated HMAC-MD5 length inside each auth-int frame; msgType
// is the fixed two-byte "message type" field.
const (
	macLen     = 10
	trailerLen = macLen + 2 + 4
)

var msgType = [2]byte{0x00, 0x01}

// integrityCodec implements the auth-int post-auth framing.
// sendKey/recvKey are Kic/Kis or Kis/Kic depending on role: a client signs
// outgoing frames with Kic and verifies incoming ones with Kis; a server
// does the reverse.
type integrityCodec struct {
	sendKey [16]byte
	recvKey [16]byte
	sendSeq uint32
	recvSeq uint32
}

func hmacMD5(key []byte, parts ...[]byte) []byte {
	m := hmac.New(md5.New, key)
	for _, p := range parts {
		m.Write(p)
	}
	return m.Sum(nil)
}

// wrap appends the HMAC-MD5 signature, message type and sequence number to
// plaintext and advances the send sequence number, wrapping modulo 2^32.
func (c *integrityCodec) wrap(plaintext []byte) []byte {
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], c.sendSeq)

	mac := hmacMD5(c.sendKey[:], seq[:], plaintext)

	out := make([]byte, 0, len(plaintext)+trailerLen)
	out = append(out, plaintext...)
	out = append(out, mac[:macLen]...)
	out = append(out, msgType[:]...)
	out = append(out, seq[:]...)

	c.sendSeq++ // wraps naturally at the uint32 boundary
	return out
}

// unwrap validates and strips the trailer, advancing the receive sequence
// number. A frame shorter than the fixed trailer is reported as NEEDS_MORE:
// the caller should wait for more bytes and retry Decode.
func (c *integrityCodec) unwrap(frame []byte) ([]byte, error) {
	if len(frame) < trailerLen {
		return nil, &sasl.Error{Code: sasl.CodeNeedsMore, Message: "integrity frame shorter than trailer"}
	}
	n := len(frame) - trailerLen
	plaintext := frame[:n]
	gotMAC := frame[n : n+macLen]
	gotType := frame[n+macLen : n+macLen+2]
	gotSeqBytes := frame[n+macLen+2:]
	gotSeq := binary.BigEndian.Uint32(gotSeqBytes)

	if gotType[0] != msgType[0] || gotType[1] != msgType[1] {
		return nil, &sasl.Error{Code: sasl.CodeIntegrityError, Message: "unexpected message type in integrity frame"}
	}
	if gotSeq != c.recvSeq {
		return nil, &sasl.Error{Code: sasl.CodeIntegrityError, Message: "unexpected sequence number in integrity frame"}
	}

	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], c.recvSeq)
	wantMAC := hmacMD5(c.recvKey[:], seq[:], plaintext)

	if !hmac.Equal(gotMAC, wantMAC[:macLen]) {
		return nil, &sasl.Error{Code: sasl.CodeIntegrityError, Message: "integrity check failed"}
	}

	c.recvSeq++
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return out, nil
}
