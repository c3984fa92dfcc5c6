package digestmd5

import (
	"crypto/subtle"
	"strings"

	sasl "github.com/dequbed/rsasl-sub002"
	"github.com/dequbed/rsasl-sub002/internal/wire"
)

type serverState struct {
	step      int
	challenge *Challenge
	codec     *integrityCodec
}

func serverStart(s *sasl.Session) error {
	s.SetState(&serverState{})
	return nil
}

func serverFinish(s *sasl.Session) {
	s.SetState(nil)
}

// serverStep implements the DIGEST-MD5 server state machine.
func serverStep(s *sasl.Session, input []byte) ([]byte, sasl.Status, error) {
	ss, _ := s.State().(*serverState)
	if ss == nil {
		return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
	}

	switch ss.step {
	case 0:
		return serverEmitChallenge(s, ss)
	case 1:
		return serverHandleResponse(s, ss, input)
	default:
		return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
	}
}

func serverEmitChallenge(s *sasl.Session, ss *serverState) ([]byte, sasl.Status, error) {
	challenge := &Challenge{UTF8: true}

	if v, ok := s.GetFast(sasl.PropRealm); ok && len(v) > 0 {
		for _, r := range strings.Split(string(v), ",") {
			challenge.Realms = append(challenge.Realms, r)
		}
	}

	offered := QOPAuth
	if v, ok := s.GetFast(sasl.PropQOPs); ok {
		offered = 0
		for _, q := range strings.Split(string(v), ",") {
			q = strings.TrimSpace(q)
			if bit, known := qopFromString(q); known && bit != QOPAuthConf {
				offered |= bit
			}
		}
		if offered == 0 {
			offered = QOPAuth
		}
	}
	challenge.QOPs = offered

	nonce, err := randomServerNonce()
	if err != nil {
		return nil, 0, err
	}
	challenge.Nonce = nonce

	ss.challenge = challenge
	ss.step = 1
	return PrintChallenge(challenge), sasl.StatusNeedsMore, nil
}

func serverHandleResponse(s *sasl.Session, ss *serverState, input []byte) ([]byte, sasl.Status, error) {
	resp, err := ParseResponse(input)
	if err != nil {
		return nil, 0, err
	}
	if err := validateResponse(ss.challenge, resp); err != nil {
		return nil, 0, err
	}

	username := resp.Username
	realm := resp.Realm
	authzid := resp.AuthZID
	if !resp.UTF8 {
		username = fromLatin1ToUTF8(username)
		realm = fromLatin1ToUTF8(realm)
		authzid = fromLatin1ToUTF8(authzid)
	}
	s.SetString(sasl.PropAuthID, username)
	s.SetString(sasl.PropRealm, realm)
	if authzid != "" {
		s.SetString(sasl.PropAuthZID, authzid)
	}

	var ssecret [16]byte
	if hp, ok := s.GetFast(sasl.PropDigestMD5HashedPassword); ok {
		decoded, err := wire.DecodeHex(string(hp))
		if err != nil || len(decoded) != 16 {
			return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "malformed DIGEST_MD5_HASHED_PASSWORD"}
		}
		copy(ssecret[:], decoded)
	} else {
		password, err := s.GetString(sasl.PropPassword)
		if err != nil {
			return nil, 0, err
		}
		ssecret = secret(resp.Username, resp.Realm, password)
	}

	in := responseInputs{
		Secret:    ssecret,
		Nonce:     resp.Nonce,
		CNonce:    resp.CNonce,
		NC:        resp.NC,
		AuthZID:   resp.AuthZID,
		DigestURI: resp.DigestURI,
		QOP:       resp.QOP,
	}
	expect := computeResponse(in)
	if subtle.ConstantTimeCompare([]byte(expect), []byte(strings.ToLower(resp.Response))) != 1 {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "response did not verify"}
	}

	in.RspAuth = true
	rspauth := computeResponse(in)

	if resp.QOP == QOPAuthInt {
		in.RspAuth = false
		ha1 := computeA1(in)
		keys := deriveIntegrityKeys(ha1)
		ss.codec = &integrityCodec{sendKey: keys.Kis, recvKey: keys.Kic}
	}

	ss.step = 2
	return PrintFinish(&Finish{RspAuth: rspauth}), sasl.StatusOK, nil
}

func serverEncode(s *sasl.Session, plaintext []byte) ([]byte, error) {
	ss, _ := s.State().(*serverState)
	if ss == nil || ss.codec == nil {
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, nil
	}
	return ss.codec.wrap(plaintext), nil
}

func serverDecode(s *sasl.Session, ciphertext []byte) ([]byte, error) {
	ss, _ := s.State().(*serverState)
	if ss == nil || ss.codec == nil {
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	}
	return ss.codec.unwrap(ciphertext)
}
