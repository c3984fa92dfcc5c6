package scram

import (
	"testing"

	"github.com/dequbed/rsasl-sub002/internal/wire"
)

// TestClientProofRFC7677Example reproduces the worked example from RFC 7677 §3
// (SCRAM-SHA-256).
func TestClientProofRFC7677Example(t *testing.T) {
	const (
		clientFirstBare    = "n=user,r=rOprNGfwEbeRWgbNEkqO"
		serverFirst        = "r=rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0,s=W22ZaJ0SNY7soEsUEjb6gQ==,i=4096"
		clientFinalNoProof = "c=biws,r=rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0"
		wantProof          = "dHzbZapWIk4jUhN+Ute9ytag9zjfMHgsqmmiz7AndVQ="
		wantVerifier       = "6rriTRBi23WpRR/wtup+mMhUZUn/dB5nLTJRsjl95G4="
	)
	salt, err := wire.DecodeBase64("W22ZaJ0SNY7soEsUEjb6gQ==")
	if err != nil {
		t.Fatalf("decode salt: %v", err)
	}

	h := SHA256
	saltedPassword := h.saltedPassword("pencil", salt, 4096)
	authMessage := clientFirstBare + "," + serverFirst + "," + clientFinalNoProof

	clientKey := h.clientKey(saltedPassword)
	storedKey := h.storedKey(clientKey)
	serverKey := h.serverKey(saltedPassword)

	clientSig := h.clientSignature(storedKey, []byte(authMessage))
	proof := h.clientProof(clientKey, clientSig)
	if got := wire.EncodeBase64(proof); got != wantProof {
		t.Fatalf("client proof = %s, want %s", got, wantProof)
	}

	serverSig := h.serverSignature(serverKey, []byte(authMessage))
	if got := wire.EncodeBase64(serverSig); got != wantVerifier {
		t.Fatalf("server signature = %s, want %s", got, wantVerifier)
	}
}
