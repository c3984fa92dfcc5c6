package scram

import (
	"crypto/subtle"
	"strconv"

	sasl "github.com/dequbed/rsasl-sub002"
	"github.com/dequbed/rsasl-sub002/internal/csprng"
	"github.com/dequbed/rsasl-sub002/internal/wire"
	"github.com/dequbed/rsasl-sub002/saslprep"
)

const (
	serverNonceBytes = 18
	saltBytes        = 12
	defaultIters     = 4096
)

type serverState struct {
	hash HashAlg
	plus bool
	step int

	first       *ClientFirst
	gs2Header   string
	serverFirst *ServerFirst
	authMessage string
}

func newServerStart(hash HashAlg, plus bool) sasl.StartFunc {
	return func(s *sasl.Session) error {
		s.SetState(&serverState{hash: hash, plus: plus})
		return nil
	}
}

func serverFinish(s *sasl.Session) {
	s.SetState(nil)
}

func newServerStep(hash HashAlg, plus bool) sasl.StepFunc {
	return func(s *sasl.Session, input []byte) ([]byte, sasl.Status, error) {
		ss, _ := s.State().(*serverState)
		if ss == nil {
			return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
		}
		switch ss.step {
		case 0:
			if len(input) == 0 {
				return nil, sasl.StatusNeedsMore, nil
			}
			return serverFirstStep(s, ss, input)
		case 1:
			return serverFinalStep(s, ss, input)
		default:
			return nil, 0, &sasl.Error{Code: sasl.CodeMechanismCalledTooManyTimes}
		}
	}
}

func serverFirstStep(s *sasl.Session, ss *serverState, input []byte) ([]byte, sasl.Status, error) {
	cf, err := ParseClientFirst(input)
	if err != nil {
		return nil, 0, err
	}

	cbData, haveCB := s.GetFast(sasl.PropCBTLSUnique)
	switch {
	case ss.plus:
		if cf.CBFlag != CBRequired {
			return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "PLUS mechanism requires channel binding"}
		}
	case haveCB && len(cbData) > 0 && cf.CBFlag == CBSupportedNotUsed:
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "channel-binding downgrade detected"}
	}

	username, perr := saslprep.Prepare(cf.Username, saslprep.Strict)
	if perr != nil {
		return nil, 0, perr
	}
	if username == "" {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "username is empty after SASLprep"}
	}
	s.SetString(sasl.PropAuthID, username)
	if cf.AuthZID != "" {
		s.SetString(sasl.PropAuthZID, cf.AuthZID)
	}

	serverNonceRaw, err := csprng.Bytes(serverNonceBytes)
	if err != nil {
		return nil, 0, &sasl.Error{Code: sasl.CodeCryptoError, Message: err.Error()}
	}
	serverNonce := wire.EncodeBase64(serverNonceRaw)
	combined := cf.Nonce + serverNonce

	iters := defaultIters
	var salt []byte
	if v, ok := s.GetFast(sasl.PropScramIter); ok {
		if n, nerr := strconv.Atoi(string(v)); nerr == nil && n > 0 {
			iters = n
		}
	}
	if v, ok := s.GetFast(sasl.PropScramSalt); ok {
		if decoded, derr := wire.DecodeBase64(string(v)); derr == nil {
			salt = decoded
		}
	}
	if salt == nil {
		saltRaw, serr := csprng.Bytes(saltBytes)
		if serr != nil {
			return nil, 0, &sasl.Error{Code: sasl.CodeCryptoError, Message: serr.Error()}
		}
		salt = saltRaw
	}

	s.SetString(sasl.PropScramIter, strconv.Itoa(iters))
	s.SetString(sasl.PropScramSalt, wire.EncodeBase64(salt))

	sf := &ServerFirst{Nonce: combined, Salt: salt, Iters: iters}
	wireMsg := PrintServerFirst(sf)
	sf.Raw = string(wireMsg)

	ss.first = cf
	ss.gs2Header = cf.GS2Header
	ss.serverFirst = sf
	ss.step = 1
	return wireMsg, sasl.StatusNeedsMore, nil
}

func serverFinalStep(s *sasl.Session, ss *serverState, input []byte) ([]byte, sasl.Status, error) {
	cf, err := ParseClientFinal(input)
	if err != nil {
		return nil, 0, err
	}
	if cf.Nonce != ss.serverFirst.Nonce {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "echoed nonce does not match"}
	}
	if len(cf.CBData) < len(ss.gs2Header) || string(cf.CBData[:len(ss.gs2Header)]) != ss.gs2Header {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "channel-binding data does not match gs2 header"}
	}
	if ss.first.CBFlag == CBRequired {
		want, _ := s.GetFast(sasl.PropCBTLSUnique)
		got := cf.CBData[len(ss.gs2Header):]
		if subtle.ConstantTimeCompare(got, want) != 1 {
			return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "channel-binding data mismatch"}
		}
	}
	if len(cf.Proof) != ss.hash.hashLen() {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "client proof has wrong length"}
	}

	storedKey, serverKey, err := ss.serverKeys(s)
	if err != nil {
		return nil, 0, err
	}

	ss.authMessage = ss.first.Bare + "," + ss.serverFirst.Raw + "," + cf.WithoutProof

	clientSig := ss.hash.clientSignature(storedKey, []byte(ss.authMessage))
	recoveredClientKey := ss.hash.recoverClientKey(cf.Proof, clientSig)
	if subtle.ConstantTimeCompare(ss.hash.storedKey(recoveredClientKey), storedKey) != 1 {
		return nil, 0, &sasl.Error{Code: sasl.CodeAuthenticationError, Message: "client proof did not verify"}
	}

	serverSig := ss.hash.serverSignature(serverKey, []byte(ss.authMessage))
	ss.step = 2
	return PrintServerFinal(&ServerFinal{Verifier: serverSig}), sasl.StatusOK, nil
}

func (ss *serverState) serverKeys(s *sasl.Session) (storedKey, serverKey []byte, err error) {
	skHex, haveSK := s.GetFast(sasl.PropScramStoredKey)
	kkHex, haveKK := s.GetFast(sasl.PropScramServerKey)
	if haveSK && haveKK {
		sk, serr := wire.DecodeHex(string(skHex))
		kk, kerr := wire.DecodeHex(string(kkHex))
		if serr == nil && kerr == nil && len(sk) == ss.hash.hashLen() && len(kk) == ss.hash.hashLen() {
			return sk, kk, nil
		}
	}

	var saltedPassword []byte
	if hexSP, ok := s.GetFast(sasl.PropScramSaltedPassword); ok {
		if decoded, derr := wire.DecodeHex(string(hexSP)); derr == nil && len(decoded) == ss.hash.hashLen() {
			saltedPassword = decoded
		}
	}
	if saltedPassword == nil {
		password, perr := s.GetString(sasl.PropPassword)
		if perr != nil {
			return nil, nil, perr
		}
		saltedPassword = ss.hash.saltedPassword(password, ss.serverFirst.Salt, ss.serverFirst.Iters)
	}

	clientKey := ss.hash.clientKey(saltedPassword)
	sk := ss.hash.storedKey(clientKey)
	kk := ss.hash.serverKey(saltedPassword)
	s.SetString(sasl.PropScramStoredKey, wire.EncodeHex(sk))
	s.SetString(sasl.PropScramServerKey, wire.EncodeHex(kk))
	return sk, kk, nil
}
