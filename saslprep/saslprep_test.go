package saslprep

import (
	"errors"
	"testing"

	sasl "github.com/dequbed/rsasl-sub002"
)

func TestPrepareNormalizesCompatibility(t *testing.T) {
	// U+00AA FEMININE ORDINAL INDICATOR normalizes under NFKC to "a".
	got, err := Prepare("ª", Strict)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got != "a" {
		t.Fatalf("Prepare(%q) = %q, want %q", "ª", got, "a")
	}
}

func TestPrepareMapsNonASCIISpaceToASCII(t *testing.T) {
	// U+00A0 NO-BREAK SPACE maps to U+0020 SPACE.
	got, err := Prepare("a b", Strict)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got != "a b" {
		t.Fatalf("Prepare = %q, want %q", got, "a b")
	}
}

func TestPrepareDropsCommonlyMappedToNothing(t *testing.T) {
	// U+00AD SOFT HYPHEN is in the "commonly mapped to nothing" table.
	got, err := Prepare("a­b", Strict)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got != "ab" {
		t.Fatalf("Prepare = %q, want %q", got, "ab")
	}
}

func TestPrepareRejectsProhibitedControlCharacter(t *testing.T) {
	_, err := Prepare("ab", Strict)
	if err == nil {
		t.Fatal("expected rejection of a prohibited control character")
	}
	var serr *sasl.Error
	if !errors.As(err, &serr) || serr.Code != sasl.CodeSASLprepError {
		t.Fatalf("err = %v, want CodeSASLprepError", err)
	}
}

func TestPrepareRejectsTab(t *testing.T) {
	// U+0009 TAB is a prohibited ASCII control character (RFC 3454 table
	// C.2.1), not one of the "commonly mapped to nothing" code points.
	_, err := Prepare("	", Strict)
	if err == nil {
		t.Fatal("expected rejection of a bare TAB character")
	}
	var serr *sasl.Error
	if !errors.As(err, &serr) || serr.Code != sasl.CodeSASLprepError {
		t.Fatalf("err = %v, want CodeSASLprepError", err)
	}
}

func TestEscapeUnescapeSaslnameRoundTrip(t *testing.T) {
	cases := []string{"plain", "with,comma", "with=equals", "both,and=", ""}
	for _, c := range cases {
		escaped := EscapeSaslname(c)
		got, err := UnescapeSaslname(escaped)
		if err != nil {
			t.Fatalf("UnescapeSaslname(%q): %v", escaped, err)
		}
		if got != c {
			t.Fatalf("round trip %q -> %q -> %q", c, escaped, got)
		}
	}
}

func TestUnescapeSaslnameRejectsRawComma(t *testing.T) {
	_, err := UnescapeSaslname("a,b")
	if err == nil {
		t.Fatal("expected rejection of unescaped comma")
	}
}

func TestUnescapeSaslnameRejectsInvalidEscape(t *testing.T) {
	_, err := UnescapeSaslname("a=99b")
	if err == nil {
		t.Fatal("expected rejection of an unrecognized escape sequence")
	}
}

func TestUnescapeSaslnameRejectsIncompleteEscape(t *testing.T) {
	_, err := UnescapeSaslname("abc=3")
	if err == nil {
		t.Fatal("expected rejection of a truncated escape sequence")
	}
}

func TestUnescapeSaslnameRejectsEmbeddedNUL(t *testing.T) {
	_, err := UnescapeSaslname("a\x00b")
	if err == nil {
		t.Fatal("expected rejection of an embedded NUL")
	}
}
