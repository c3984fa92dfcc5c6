package scram

import (
	"errors"
	"testing"

	sasl "github.com/dequbed/rsasl-sub002"
)

func newPair(t *testing.T, name string, hash HashAlg, plus bool) (*sasl.Session, *sasl.Session) {
	t.Helper()
	r := sasl.NewRegistry()
	if err := r.Register(Mechanism(name, hash, plus)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	client, err := r.StartClient(name)
	if err != nil {
		t.Fatalf("StartClient: %v", err)
	}
	server, err := r.StartServer(name)
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	return client, server
}

func withCreds(s *sasl.Session, authid, password string) {
	s.SetCallback(func(sess *sasl.Session, key sasl.Property) error {
		switch key {
		case sasl.PropAuthID:
			sess.SetString(sasl.PropAuthID, authid)
		case sasl.PropPassword:
			sess.SetString(sasl.PropPassword, password)
		default:
			return sasl.ErrCode(sasl.CodeNoCallback)
		}
		return nil
	})
}

// TestClientServerRoundTripSHA256 drives a full four-message exchange
// through the registry and checks both sides reach StatusOK.
func TestClientServerRoundTripSHA256(t *testing.T) {
	client, server := newPair(t, NameSHA256, SHA256, false)
	withCreds(client, "user", "pencil")
	withCreds(server, "user", "pencil")

	clientFirst, status, err := client.Step(nil)
	if err != nil || status != sasl.StatusNeedsMore {
		t.Fatalf("client first: status=%v err=%v", status, err)
	}

	serverFirst, status, err := server.Step(clientFirst)
	if err != nil || status != sasl.StatusNeedsMore {
		t.Fatalf("server first: status=%v err=%v", status, err)
	}

	clientFinal, status, err := client.Step(serverFirst)
	if err != nil || status != sasl.StatusNeedsMore {
		t.Fatalf("client final: status=%v err=%v", status, err)
	}

	serverFinal, status, err := server.Step(clientFinal)
	if err != nil || status != sasl.StatusOK {
		t.Fatalf("server final: status=%v err=%v", status, err)
	}

	_, status, err = client.Step(serverFinal)
	if err != nil || status != sasl.StatusOK {
		t.Fatalf("client verify: status=%v err=%v", status, err)
	}
}

// TestClientServerRoundTripWrongPassword checks that a mismatched password
// is rejected at the server's final step rather than silently accepted.
func TestClientServerRoundTripWrongPassword(t *testing.T) {
	client, server := newPair(t, NameSHA1, SHA1, false)
	withCreds(client, "user", "wrong-password")
	withCreds(server, "user", "pencil")

	clientFirst, _, err := client.Step(nil)
	if err != nil {
		t.Fatalf("client first: %v", err)
	}
	serverFirst, _, err := server.Step(clientFirst)
	if err != nil {
		t.Fatalf("server first: %v", err)
	}
	clientFinal, _, err := client.Step(serverFirst)
	if err != nil {
		t.Fatalf("client final: %v", err)
	}
	_, _, err = server.Step(clientFinal)
	if err == nil {
		t.Fatal("expected authentication failure with wrong password")
	}
	if !errors.Is(err, sasl.ErrCode(sasl.CodeAuthenticationError)) {
		t.Fatalf("err = %v, want AUTHENTICATION_ERROR", err)
	}
}

// TestServerRejectsPlusWithoutChannelBinding exercises the PLUS variant's
// mandatory p= flag check: a client-first lacking CBRequired must be
// refused before any password work happens.
func TestServerRejectsPlusWithoutChannelBinding(t *testing.T) {
	r := sasl.NewRegistry()
	if err := r.Register(Mechanism(NameSHA256PLUS, SHA256, true)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	server, err := r.StartServer(NameSHA256PLUS)
	if err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	withCreds(server, "user", "pencil")

	cf := &ClientFirst{CBFlag: CBNone, Username: "user", Nonce: "abcdefghijklmnop"}
	_, _, err = server.Step(PrintClientFirst(cf))
	if err == nil {
		t.Fatal("expected error when PLUS variant sees no channel-binding flag")
	}
	if !errors.Is(err, sasl.ErrCode(sasl.CodeAuthenticationError)) {
		t.Fatalf("err = %v, want AUTHENTICATION_ERROR", err)
	}
}

// TestServerDetectsChannelBindingDowngrade exercises the non-PLUS
// downgrade-detection check: if the application reports tls-unique data is
// available but the client claims y (supported, not used), the exchange
// must be refused rather than silently accepted without binding.
func TestServerDetectsChannelBindingDowngrade(t *testing.T) {
	client, server := newPair(t, NameSHA256, SHA256, false)
	withCreds(client, "user", "pencil")
	withCreds(server, "user", "pencil")
	server.Set(sasl.PropCBTLSUnique, []byte("fake-tls-unique-data"))

	cf := &ClientFirst{CBFlag: CBSupportedNotUsed, Username: "user", Nonce: "abcdefghijklmnop"}
	_, _, err := server.Step(PrintClientFirst(cf))
	if err == nil {
		t.Fatal("expected channel-binding downgrade to be rejected")
	}
	if !errors.Is(err, sasl.ErrCode(sasl.CodeAuthenticationError)) {
		t.Fatalf("err = %v, want AUTHENTICATION_ERROR", err)
	}
}
