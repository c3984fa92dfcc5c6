package scram

import "testing"

func TestParsePrintClientFirstRoundTrip(t *testing.T) {
	cf := &ClientFirst{
		CBFlag:   CBNone,
		Username: "user",
		Nonce:    "fyko+d2lbbFgONRv9qkxdawL",
	}
	wire := PrintClientFirst(cf)
	got, err := ParseClientFirst(wire)
	if err != nil {
		t.Fatalf("ParseClientFirst: %v", err)
	}
	if got.Username != "user" || got.Nonce != cf.Nonce {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Bare != "n=user,r=fyko+d2lbbFgONRv9qkxdawL" {
		t.Fatalf("bare = %q", got.Bare)
	}
}

func TestParseClientFirstChannelBindingFlags(t *testing.T) {
	cases := []struct {
		in   string
		flag CBFlag
		name string
	}{
		{"n,,n=user,r=abc", CBNone, ""},
		{"y,,n=user,r=abc", CBSupportedNotUsed, ""},
		{"p=tls-unique,,n=user,r=abc", CBRequired, "tls-unique"},
	}
	for _, c := range cases {
		got, err := ParseClientFirst([]byte(c.in))
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got.CBFlag != c.flag || got.CBName != c.name {
			t.Fatalf("%q: flag=%v name=%q, want flag=%v name=%q", c.in, got.CBFlag, got.CBName, c.flag, c.name)
		}
	}
}

func TestParseClientFirstWithAuthzid(t *testing.T) {
	got, err := ParseClientFirst([]byte("n,a=alice,n=user,r=abc"))
	if err != nil {
		t.Fatalf("ParseClientFirst: %v", err)
	}
	if got.AuthZID != "alice" {
		t.Fatalf("authzid = %q, want alice", got.AuthZID)
	}
}

func TestParseClientFirstRejectsMandatoryExtension(t *testing.T) {
	_, err := ParseClientFirst([]byte("n,,n=user,r=abc,m=unknown"))
	if err == nil {
		t.Fatal("expected error for mandatory extension")
	}
}

func TestParseClientFirstRejectsBadNonce(t *testing.T) {
	_, err := ParseClientFirst([]byte("n,,n=user,r=bad nonce"))
	if err == nil {
		t.Fatal("expected error for nonce containing a disallowed character")
	}
}

func TestParsePrintServerFirstRoundTrip(t *testing.T) {
	sf := &ServerFirst{
		Nonce: "fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j",
		Salt:  []byte("0123456789ab"),
		Iters: 4096,
	}
	got, err := ParseServerFirst(PrintServerFirst(sf))
	if err != nil {
		t.Fatalf("ParseServerFirst: %v", err)
	}
	if got.Nonce != sf.Nonce || got.Iters != 4096 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseServerFirstRejectsZeroIterations(t *testing.T) {
	_, err := ParseServerFirst([]byte("r=abc,s=AAAA,i=0"))
	if err == nil {
		t.Fatal("expected error for zero iterations")
	}
}

func TestParsePrintClientFinalRoundTrip(t *testing.T) {
	cf := &ClientFinal{
		CBData: []byte("n,,"),
		Nonce:  "fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j",
		Proof:  []byte("0123456789012345678"),
	}
	got, err := ParseClientFinal(PrintClientFinal(cf))
	if err != nil {
		t.Fatalf("ParseClientFinal: %v", err)
	}
	if got.Nonce != cf.Nonce || string(got.Proof) != string(cf.Proof) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParsePrintServerFinalRoundTrip(t *testing.T) {
	sf := &ServerFinal{Verifier: []byte("abcdefghij")}
	got, err := ParseServerFinal(PrintServerFinal(sf))
	if err != nil {
		t.Fatalf("ParseServerFinal: %v", err)
	}
	if string(got.Verifier) != string(sf.Verifier) {
		t.Fatalf("verifier mismatch: %+v", got)
	}

	errTok := &ServerFinal{ErrorToken: "other-error"}
	got, err = ParseServerFinal(PrintServerFinal(errTok))
	if err != nil {
		t.Fatalf("ParseServerFinal error variant: %v", err)
	}
	if got.ErrorToken != "other-error" {
		t.Fatalf("error token = %q", got.ErrorToken)
	}
}
