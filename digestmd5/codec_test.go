package digestmd5

import (
	"errors"
	"testing"

	sasl "github.com/dequbed/rsasl-sub002"
)

func TestIntegrityCodecWrapUnwrapRoundTrip(t *testing.T) {
	var kic, kis [16]byte
	for i := range kic {
		kic[i] = byte(i)
		kis[i] = byte(i + 1)
	}
	client := &integrityCodec{sendKey: kic, recvKey: kis}
	server := &integrityCodec{sendKey: kis, recvKey: kic}

	for i, msg := range []string{"ping", "pong", "a third message"} {
		wrapped := client.wrap([]byte(msg))
		if len(wrapped) != len(msg)+trailerLen {
			t.Fatalf("message %d: wrapped len = %d, want %d", i, len(wrapped), len(msg)+trailerLen)
		}
		got, err := server.unwrap(wrapped)
		if err != nil {
			t.Fatalf("message %d: unwrap: %v", i, err)
		}
		if string(got) != msg {
			t.Fatalf("message %d: got %q, want %q", i, got, msg)
		}
	}
}

func TestIntegrityCodecRejectsTamperedFrame(t *testing.T) {
	var key [16]byte
	client := &integrityCodec{sendKey: key, recvKey: key}
	server := &integrityCodec{sendKey: key, recvKey: key}

	wrapped := client.wrap([]byte("ping"))
	wrapped[0] ^= 0xff

	if _, err := server.unwrap(wrapped); err == nil {
		t.Fatal("expected integrity error on tampered frame")
	}
}

func TestIntegrityCodecRejectsReplayedSequence(t *testing.T) {
	var key [16]byte
	client := &integrityCodec{sendKey: key, recvKey: key}
	server := &integrityCodec{sendKey: key, recvKey: key}

	first := client.wrap([]byte("ping"))
	if _, err := server.unwrap(first); err != nil {
		t.Fatalf("unwrap first: %v", err)
	}
	// Replaying the same frame now carries a stale sequence number.
	if _, err := server.unwrap(first); err == nil {
		t.Fatal("expected integrity error on replayed sequence number")
	}
}

func TestIntegrityCodecNeedsMoreOnShortFrame(t *testing.T) {
	var key [16]byte
	server := &integrityCodec{sendKey: key, recvKey: key}
	_, err := server.unwrap([]byte{0x01, 0x02})
	if err == nil {
		t.Fatal("expected error on undersized frame")
	}
	if !errors.Is(err, sasl.ErrCode(sasl.CodeNeedsMore)) {
		t.Fatalf("err = %v, want NEEDS_MORE", err)
	}
}
