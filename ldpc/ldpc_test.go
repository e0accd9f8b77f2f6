package ldpc

import (
	"testing"
)

func testMessage(seed uint32) []byte {
	u := make([]byte, K)
	x := seed
	for i := range u {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		u[i] = byte(x & 1)
	}
	return u
}

func TestEncodeSystematicPrefix(t *testing.T) {
	c := New(0.8, 20.0)
	u := testMessage(7)
	x, err := c.Encode(u)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(x) != N {
		t.Fatalf("Encode() length = %d, want %d", len(x), N)
	}
	for i := 0; i < K; i++ {
		if x[i] != u[i] {
			t.Fatalf("codeword[%d] = %d, want systematic prefix bit %d", i, x[i], u[i])
		}
	}
}

func TestEncodeSatisfiesSyndrome(t *testing.T) {
	c := New(0.8, 20.0)
	for _, seed := range []uint32{1, 2, 3, 99} {
		u := testMessage(seed)
		x, err := c.Encode(u)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !c.syndromeOK(x) {
			t.Errorf("seed %d: encoded codeword fails parity check", seed)
		}
	}
}

func TestEveryMessageColumnHasDegreeTwo(t *testing.T) {
	c := New(0.8, 20.0)
	for col := 0; col < K; col++ {
		if got := len(c.col2rows[col]); got != 2 {
			t.Errorf("message column %d has degree %d, want 2", col, got)
		}
	}
}

func llrFromCodeword(x []byte, magnitude float64) []float64 {
	llr := make([]float64, len(x))
	for i, b := range x {
		if b == 0 {
			llr[i] = magnitude
		} else {
			llr[i] = -magnitude
		}
	}
	return llr
}

func TestDecodeNoiselessConverges(t *testing.T) {
	c := New(0.8, 20.0)
	u := testMessage(42)
	x, err := c.Encode(u)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	llr := llrFromCodeword(x, 10)
	res, err := c.Decode(llr, 300)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !res.Converged {
		t.Fatal("Decode() did not converge on a noiseless codeword")
	}
	for i, b := range res.Bits {
		if b != x[i] {
			t.Fatalf("decoded bit %d = %d, want %d", i, b, x[i])
		}
	}
}

func TestDecodeCorrectsSingleBitFlip(t *testing.T) {
	c := New(0.8, 20.0)
	u := testMessage(13)
	x, err := c.Encode(u)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	llr := llrFromCodeword(x, 10)
	// Weaken one bit's confidence enough that the flipped hard decision
	// starts out wrong, but not so much it overrides the neighborhood.
	llr[5] = -2
	res, err := c.Decode(llr, 300)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !res.Converged {
		t.Fatal("Decode() did not converge after weakening one bit")
	}
	for i, b := range res.Bits {
		if b != x[i] {
			t.Fatalf("decoded bit %d = %d, want %d after correction", i, b, x[i])
		}
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	c := New(0.8, 20.0)
	if _, err := c.Decode(make([]float64, N-1), 10); err == nil {
		t.Fatal("Decode() with a short LLR vector should fail")
	}
}
