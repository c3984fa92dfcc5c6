package scram

import (
	"strconv"
	"strings"

	sasl "github.com/dequbed/rsasl-sub002"
	"github.com/dequbed/rsasl-sub002/internal/wire"
	"github.com/dequbed/rsasl-sub002/saslprep"
)

type parseErr struct{ msg string }

func fail(msg string) { panic(parseErr{msg: msg}) }

func recoverParse(err *error) {
	if r := recover(); r != nil {
		pe, ok := r.(parseErr)
		if !ok {
			panic(r)
		}
		*err = &sasl.Error{Code: sasl.CodeMechanismParseError, Message: pe.msg}
	}
}

// validNonceByte reports whether b is a permitted SCRAM nonce character:
// printable US-ASCII excluding comma.
func validNonceByte(b byte) bool {
	return (b >= 0x21 && b <= 0x2b) || (b >= 0x2d && b <= 0x7e)
}

func validNonce(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !validNonceByte(s[i]) {
			return false
		}
	}
	return true
}

// ParseClientFirst parses a SCRAM client-first message, gs2-header and all.
func ParseClientFirst(data []byte) (cf *ClientFirst, err error) {
	defer recoverParse(&err)
	s := string(data)

	firstComma := strings.IndexByte(s, ',')
	if firstComma < 0 {
		fail("client-first: missing gs2 channel-binding flag")
	}
	secondComma := strings.IndexByte(s[firstComma+1:], ',')
	if secondComma < 0 {
		fail("client-first: malformed gs2 header")
	}
	secondComma += firstComma + 1

	cf = &ClientFirst{}
	gs2cb := s[:firstComma]
	switch {
	case gs2cb == "n":
		cf.CBFlag = CBNone
	case gs2cb == "y":
		cf.CBFlag = CBSupportedNotUsed
	case strings.HasPrefix(gs2cb, "p="):
		cf.CBFlag = CBRequired
		cf.CBName = gs2cb[2:]
	default:
		fail("client-first: unknown gs2 channel-binding flag")
	}

	gs2authzid := s[firstComma+1 : secondComma]
	if gs2authzid != "" {
		if !strings.HasPrefix(gs2authzid, "a=") {
			fail("client-first: malformed gs2 authzid")
		}
		authzid, uerr := saslprep.UnescapeSaslname(gs2authzid[2:])
		if uerr != nil {
			fail("client-first: invalid authzid: " + uerr.Error())
		}
		cf.AuthZID = authzid
	}

	cf.GS2Header = s[:secondComma+1]
	cf.Bare = s[secondComma+1:]

	for _, attr := range strings.Split(cf.Bare, ",") {
		if len(attr) < 2 || attr[1] != '=' {
			if strings.HasPrefix(attr, "m=") {
				fail("client-first: unsupported mandatory extension")
			}
			continue
		}
		key, val := attr[0], attr[2:]
		switch key {
		case 'n':
			name, uerr := saslprep.UnescapeSaslname(val)
			if uerr != nil {
				fail("client-first: invalid username: " + uerr.Error())
			}
			cf.Username = name
		case 'r':
			if !validNonce(val) {
				fail("client-first: invalid nonce characters")
			}
			cf.Nonce = val
		case 'm':
			fail("client-first: unsupported mandatory extension")
		}
	}
	if cf.Nonce == "" {
		fail("client-first: missing nonce")
	}
	return cf, nil
}

// PrintClientFirst serializes a client-first message.
func PrintClientFirst(cf *ClientFirst) []byte {
	var gs2 strings.Builder
	switch cf.CBFlag {
	case CBNone:
		gs2.WriteString("n")
	case CBSupportedNotUsed:
		gs2.WriteString("y")
	case CBRequired:
		gs2.WriteString("p=" + cf.CBName)
	}
	gs2.WriteByte(',')
	if cf.AuthZID != "" {
		gs2.WriteString("a=" + saslprep.EscapeSaslname(cf.AuthZID))
	}
	gs2.WriteByte(',')

	bare := "n=" + saslprep.EscapeSaslname(cf.Username) + ",r=" + cf.Nonce
	return []byte(gs2.String() + bare)
}

// ParseServerFirst parses a SCRAM server-first message.
func ParseServerFirst(data []byte) (sf *ServerFirst, err error) {
	defer recoverParse(&err)
	s := string(data)
	parts := strings.Split(s, ",")
	for _, attr := range parts {
		if strings.HasPrefix(attr, "m=") {
			fail("server-first: unsupported mandatory extension")
		}
	}
	if len(parts) < 3 {
		fail("server-first: expected at least r=,s=,i= attributes")
	}
	if !strings.HasPrefix(parts[0], "r=") {
		fail("server-first: missing nonce")
	}
	if !strings.HasPrefix(parts[1], "s=") {
		fail("server-first: missing salt")
	}
	if !strings.HasPrefix(parts[2], "i=") {
		fail("server-first: missing iteration count")
	}
	nonce := parts[0][2:]
	if !validNonce(nonce) {
		fail("server-first: invalid nonce characters")
	}
	salt, derr := wire.DecodeBase64(parts[1][2:])
	if derr != nil {
		fail("server-first: invalid base64 salt")
	}
	iters, nerr := strconv.Atoi(parts[2][2:])
	if nerr != nil || iters <= 0 {
		fail("server-first: invalid iteration count")
	}
	return &ServerFirst{Nonce: nonce, Salt: salt, Iters: iters, Raw: s}, nil
}

// PrintServerFirst serializes a server-first message.
func PrintServerFirst(sf *ServerFirst) []byte {
	return []byte("r=" + sf.Nonce + ",s=" + wire.EncodeBase64(sf.Salt) + ",i=" + strconv.Itoa(sf.Iters))
}

// ParseClientFinal parses a SCRAM client-final message.
func ParseClientFinal(data []byte) (cf *ClientFinal, err error) {
	defer recoverParse(&err)
	s := string(data)
	parts := strings.Split(s, ",")
	if len(parts) < 3 {
		fail("client-final: expected at least c=,r=,p= attributes")
	}
	if !strings.HasPrefix(parts[0], "c=") {
		fail("client-final: missing channel-binding attribute")
	}
	cbData, derr := wire.DecodeBase64(parts[0][2:])
	if derr != nil {
		fail("client-final: invalid base64 channel-binding data")
	}

	var nonce string
	var proofB64 string
	for _, attr := range parts[1:] {
		if strings.HasPrefix(attr, "r=") {
			nonce = attr[2:]
		} else if strings.HasPrefix(attr, "p=") {
			proofB64 = attr[2:]
		} else if strings.HasPrefix(attr, "m=") {
			fail("client-final: unsupported mandatory extension")
		}
	}
	if nonce == "" {
		fail("client-final: missing nonce")
	}
	if proofB64 == "" {
		fail("client-final: missing proof")
	}
	proof, perr := wire.DecodeBase64(proofB64)
	if perr != nil {
		fail("client-final: invalid base64 proof")
	}

	withoutProofLen := strings.LastIndex(s, ",p=")
	if withoutProofLen < 0 {
		fail("client-final: malformed message")
	}

	return &ClientFinal{
		CBData:       cbData,
		Nonce:        nonce,
		Proof:        proof,
		WithoutProof: s[:withoutProofLen],
	}, nil
}

// PrintClientFinalWithoutProof serializes a client-final message, without
// the proof attribute, for use as client-final-message-without-proof.
func PrintClientFinalWithoutProof(cf *ClientFinal) []byte {
	return []byte("c=" + wire.EncodeBase64(cf.CBData) + ",r=" + cf.Nonce)
}

// PrintClientFinal serializes a complete client-final message.
func PrintClientFinal(cf *ClientFinal) []byte {
	return []byte(string(PrintClientFinalWithoutProof(cf)) + ",p=" + wire.EncodeBase64(cf.Proof))
}

// ParseServerFinal parses a SCRAM server-final message.
func ParseServerFinal(data []byte) (sf *ServerFinal, err error) {
	defer recoverParse(&err)
	s := string(data)
	switch {
	case strings.HasPrefix(s, "v="):
		v, derr := wire.DecodeBase64(s[2:])
		if derr != nil {
			fail("server-final: invalid base64 verifier")
		}
		return &ServerFinal{Verifier: v}, nil
	case strings.HasPrefix(s, "e="):
		return &ServerFinal{ErrorToken: s[2:]}, nil
	default:
		fail("server-final: expected v= or e= attribute")
		return nil, nil
	}
}

// PrintServerFinal serializes a server-final message.
func PrintServerFinal(sf *ServerFinal) []byte {
	if sf.ErrorToken != "" {
		return []byte("e=" + sf.ErrorToken)
	}
	return []byte("v=" + wire.EncodeBase64(sf.Verifier))
}
