package scram

import (
	"crypto/subtle"
	"strconv"

	sasl "github.com/dequbed/rsasl-sub002"
	"github.com/dequbed/rsasl-sub002/internal/csprng"
	"github.com/dequbed/rsasl-sub002/internal/wire"
	"github.com/dequbed/rsasl-sub002/saslprep"
)

const clientNonceBytes = 18

type clientState struct {
	hash  HashAlg
	plus  bool
	step  int
	first *ClientFirst

	authMessage     string
	serverSignature []byte
}

func newClientStart(hash HashAlg, plus bool) sasl.StartFunc {
	return func(s *sasl.Session) error {
		s.SetState(&clientState{hash: hash, plus: plus})
		return nil
	}
}

func clientFinish(s *sasl.Session) {
	s.SetState(nil)
}

func randomNonce() (string, error) {
	raw, err := csprng.Bytes(clientNonceBytes)
	if err != nil {
		return "", &sasl.Error{Code: sasl.CodeCryptoError, Message: err.Error()}
	}
	return wire.EncodeBase64(raw), nil
}

func newClientStep(hash HashAlg, plus bool) sasl.StepFunc {
	return func(s *sasl.Session, input []byte) ([]byte, sasl.Status, error) {
		cs, _ := s.State().(*clientState)
		if cs == nil {
			return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
		}
		switch cs.step {
		case 0:
			return clientFirstStep(s, cs)
		case 1:
			return clientFinalStep(s, cs, input)
		case 2:
			return clientVerifyStep(s, cs, input)
		default:
			return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
		}
	}
}

func clientFirstStep(s *sasl.Session, cs *clientState) ([]byte, sasl.Status, error) {
	cf := &ClientFirst{}

	cbData, haveCB := s.GetFast(sasl.PropCBTLSUnique)
	switch {
	case cs.plus:
		if !haveCB || len(cbData) == 0 {
			return nil, 0, &sasl.Error{Code: sasl.CodeNoCBTLSUnique}
		}
		cf.CBFlag = CBRequired
		cf.CBName = "tls-unique"
	case haveCB && len(cbData) > 0:
		cf.CBFlag = CBSupportedNotUsed
	default:
		cf.CBFlag = CBNone
	}

	username, err := s.GetString(sasl.PropAuthID)
	if err != nil {
		return nil, 0, err
	}
	username, err = saslprep.Prepare(username, saslprep.Strict)
	if err != nil {
		return nil, 0, err
	}
	cf.Username = username

	if v, ok := s.GetFast(sasl.PropAuthZID); ok {
		cf.AuthZID = string(v)
	}

	nonce, err := randomNonce()
	if err != nil {
		return nil, 0, err
	}
	cf.Nonce = nonce

	wireMsg := PrintClientFirst(cf)
	reparsed, _ := ParseClientFirst(wireMsg)
	cf.GS2Header = reparsed.GS2Header
	cf.Bare = reparsed.Bare

	cs.first = cf
	cs.step = 1
	return wireMsg, sasl.StatusNeedsMore, nil
}

func clientFinalStep(s *sasl.Session, cs *clientState, input []byte) ([]byte, sasl.Status, error) {
	sf, err := ParseServerFirst(input)
	if err != nil {
		return nil, 0, err
	}
	if len(sf.Nonce) <= len(cs.first.Nonce) || sf.Nonce[:len(cs.first.Nonce)] != cs.first.Nonce {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "server nonce does not extend client nonce"}
	}

	s.SetString(sasl.PropScramIter, strconv.Itoa(sf.Iters))
	s.SetString(sasl.PropScramSalt, wire.EncodeBase64(sf.Salt))

	saltedPassword, err := cs.clientSaltedPassword(s, sf)
	if err != nil {
		return nil, 0, err
	}

	cbData := []byte(cs.first.GS2Header)
	if cs.first.CBFlag == CBRequired {
		if raw, ok := s.GetFast(sasl.PropCBTLSUnique); ok {
			cbData = append(cbData, raw...)
		}
	}

	cf := &ClientFinal{CBData: cbData, Nonce: sf.Nonce}
	withoutProof := PrintClientFinalWithoutProof(cf)

	cs.authMessage = cs.first.Bare + "," + sf.Raw + "," + string(withoutProof)

	clientKey := cs.hash.clientKey(saltedPassword)
	storedKey := cs.hash.storedKey(clientKey)
	serverKey := cs.hash.serverKey(saltedPassword)
	clientSig := cs.hash.clientSignature(storedKey, []byte(cs.authMessage))
	cf.Proof = cs.hash.clientProof(clientKey, clientSig)
	cs.serverSignature = cs.hash.serverSignature(serverKey, []byte(cs.authMessage))

	cs.step = 2
	return PrintClientFinal(cf), sasl.StatusNeedsMore, nil
}

func (cs *clientState) clientSaltedPassword(s *sasl.Session, sf *ServerFirst) ([]byte, error) {
	if hexSP, ok := s.GetFast(sasl.PropScramSaltedPassword); ok {
		decoded, err := wire.DecodeHex(string(hexSP))
		if err == nil && len(decoded) == cs.hash.hashLen() {
			return decoded, nil
		}
	}
	password, err := s.GetString(sasl.PropPassword)
	if err != nil {
		return nil, err
	}
	sp := cs.hash.saltedPassword(password, sf.Salt, sf.Iters)
	s.SetString(sasl.PropScramSaltedPassword, wire.EncodeHex(sp))
	return sp, nil
}

func clientVerifyStep(s *sasl.Session, cs *clientState, input []byte) ([]byte, sasl.Status, error) {
	sf, err := ParseServerFinal(input)
	if err != nil {
		return nil, 0, err
	}
	if sf.ErrorToken != "" {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "server reported: " + sf.ErrorToken}
	}
	if subtle.ConstantTimeCompare(sf.Verifier, cs.serverSignature) != 1 {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "server signature did not verify"}
	}
	cs.step = 3
	return nil, sasl.StatusOK, nil
}
