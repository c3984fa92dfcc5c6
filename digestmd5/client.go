package digestmd5

import (
	"crypto/subtle"
	"strings"

	sasl "github.com/dequbed/rsasl-sub002"
)

type clientState struct {
	step      int
	challenge *Challenge
	in        responseInputs // frozen inputs used for both response and rspauth
	codec     *integrityCodec
}

func clientStart(s *sasl.Session) error {
	s.SetState(&clientState{})
	return nil
}

func clientFinish(s *sasl.Session) {
	s.SetState(nil)
}

// clientStep implements the DIGEST-MD5 client state machine.
func clientStep(s *sasl.Session, input []byte) ([]byte, sasl.Status, error) {
	cs, _ := s.State().(*clientState)
	if cs == nil {
		return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
	}

	switch cs.step {
	case 0:
		if len(input) == 0 {
			return nil, sasl.StatusNeedsMore, nil
		}
		return clientHandleChallenge(s, cs, input)
	case 1:
		return clientHandleFinish(s, cs, input)
	default:
		return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
	}
}

func clientHandleChallenge(s *sasl.Session, cs *clientState, input []byte) ([]byte, sasl.Status, error) {
	challenge, err := ParseChallenge(input)
	if err != nil {
		return nil, 0, err
	}
	cs.challenge = challenge

	if len(challenge.Realms) > 0 {
		s.SetString(sasl.PropRealm, challenge.Realms[0])
	}
	s.SetString(sasl.PropQOPs, qopList(challenge.QOPs))

	qop := QOPAuth
	if v, ok := s.GetFast(sasl.PropQOP); ok {
		bit, known := qopFromString(string(v))
		if !known {
			return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "unknown QOP selected"}
		}
		if bit == QOPAuthConf {
			return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "auth-conf is not supported"}
		}
		qop = bit
	}

	service, err := s.GetString(sasl.PropService)
	if err != nil {
		return nil, 0, err
	}
	hostname, err := s.GetString(sasl.PropHostname)
	if err != nil {
		return nil, 0, err
	}
	digestURI := service + "/" + hostname

	username, err := s.GetString(sasl.PropAuthID)
	if err != nil {
		return nil, 0, err
	}

	authzid := ""
	if v, ok := s.GetFast(sasl.PropAuthZID); ok {
		authzid = string(v)
	}

	realm := ""
	if v, err := s.Get(sasl.PropRealm); err == nil {
		realm = string(v)
	}

	password, err := s.GetString(sasl.PropPassword)
	if err != nil {
		return nil, 0, err
	}
	password = toLatin1IfLossless(password)

	cnonce, err := randomCNonce()
	if err != nil {
		return nil, 0, err
	}

	ss := secret(username, realm, password)
	cs.in = responseInputs{
		Secret:    ss,
		Nonce:     challenge.Nonce,
		CNonce:    cnonce,
		NC:        1,
		AuthZID:   authzid,
		DigestURI: digestURI,
		QOP:       qop,
	}

	resp := &Response{
		Username:  username,
		Realm:     realm,
		Nonce:     challenge.Nonce,
		CNonce:    cnonce,
		NC:        1,
		QOP:       qop,
		DigestURI: digestURI,
		UTF8:      true,
		AuthZID:   authzid,
	}
	resp.Response = computeResponse(cs.in)

	if qop == QOPAuthInt {
		ha1 := computeA1(cs.in)
		keys := deriveIntegrityKeys(ha1)
		cs.codec = &integrityCodec{sendKey: keys.Kic, recvKey: keys.Kis}
	}

	cs.step = 1
	return PrintResponse(resp), sasl.StatusNeedsMore, nil
}

func clientHandleFinish(s *sasl.Session, cs *clientState, input []byte) ([]byte, sasl.Status, error) {
	finish, err := ParseFinish(input)
	if err != nil {
		return nil, 0, err
	}
	in := cs.in
	in.RspAuth = true
	expect := computeResponse(in)
	if subtle.ConstantTimeCompare([]byte(expect), []byte(strings.ToLower(finish.RspAuth))) != 1 {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "rspauth did not verify"}
	}
	cs.step = 2
	return nil, sasl.StatusOK, nil
}

func clientEncode(s *sasl.Session, plaintext []byte) ([]byte, error) {
	cs, _ := s.State().(*clientState)
	if cs == nil || cs.codec == nil {
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, nil
	}
	return cs.codec.wrap(plaintext), nil
}

func clientDecode(s *sasl.Session, ciphertext []byte) ([]byte, error) {
	cs, _ := s.State().(*clientState)
	if cs == nil || cs.codec == nil {
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	}
	return cs.codec.unwrap(ciphertext)
}
