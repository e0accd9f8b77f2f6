package payload

import (
	"bytes"
	"testing"

	"github.com/enthdegree/cicada/internal/blssig"
)

func testKeypair(t *testing.T) (sk, pk []byte) {
	t.Helper()
	ikm := bytes.Repeat([]byte{0x5a}, 32)
	sk, err := blssig.KeyGen(ikm)
	if err != nil {
		t.Fatalf("KeyGen() error = %v", err)
	}
	pk, err = blssig.PublicKey(sk)
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	return sk, pk
}

func TestFrameBytesRoundTrip(t *testing.T) {
	f := Frame{
		Header:    Header{Timestamp: 1234567890, WordCount: 6, Message: "hello"},
		Signature: bytes.Repeat([]byte{0xAB}, blssig.CompressedSignatureSize),
	}
	b := f.Bytes(nil)
	if len(b) != 64 {
		t.Fatalf("Bytes() length = %d, want 64", len(b))
	}
	got, err := FrameFromBytes(b)
	if err != nil {
		t.Fatalf("FrameFromBytes() error = %v", err)
	}
	if got.Header != f.Header {
		t.Errorf("FrameFromBytes() header = %+v, want %+v", got.Header, f.Header)
	}
	if !bytes.Equal(got.Signature, f.Signature) {
		t.Errorf("FrameFromBytes() signature mismatch")
	}
}

func TestHeaderMessageTruncation(t *testing.T) {
	f := Frame{Header: Header{Message: "this message is far too long for eleven bytes"}}
	b := f.Bytes(nil)
	got, err := FrameFromBytes(b)
	if err != nil {
		t.Fatalf("FrameFromBytes() error = %v", err)
	}
	if len(got.Header.Message) != 11 {
		t.Errorf("truncated message length = %d, want 11", len(got.Header.Message))
	}
}

func TestSignAndMatch(t *testing.T) {
	sk, pk := testKeypair(t)
	toks := Canonicalize("the quick brown fox jumps over the lazy dog")

	header := Header{Timestamp: 100, WordCount: 4, Message: "hdr"}
	frame, err := Sign(header, toks[2:6], sk, pk, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	idx, err := Match(frame, toks, pk, nil)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if idx != 2 {
		t.Errorf("Match() = %d, want 2", idx)
	}
}

func TestMatchFailsWithoutMatchingWindow(t *testing.T) {
	sk, pk := testKeypair(t)
	toks := Canonicalize("alpha bravo charlie delta")
	header := Header{WordCount: 2}
	frame, err := Sign(header, toks[0:2], sk, pk, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	otherToks := Canonicalize("totally different words entirely")
	idx, err := Match(frame, otherToks, pk, nil)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if idx != -1 {
		t.Errorf("Match() = %d, want -1 for non-matching transcript", idx)
	}
}
