package fsk

import (
	"testing"
)

func newTestPair(t *testing.T) (*Waveform, *Demodulator) {
	t.Helper()
	cfg := testConfig()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return w, NewDemodulator(w, cfg)
}

func randomBits(n int, seed uint32) []byte {
	bits := make([]byte, n)
	x := seed
	for i := range bits {
		// xorshift32
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		bits[i] = byte(x & 1)
	}
	return bits
}

func TestFrameSearchEmptyForShortBuffer(t *testing.T) {
	_, d := newTestPair(t)
	x := make([]float32, 44100) // well under one frame's worth of samples
	results, err := d.FrameSearch(x)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("FrameSearch() on a short silent buffer returned %d results, want 0", len(results))
	}
}

func TestFrameSearchFindsSingleFrame(t *testing.T) {
	w, d := newTestPair(t)
	bits := randomBits(w.SymbolsPerFrame()*w.BitsPerSymbol(), 12345)
	samples := w.Modulate(bits)

	results, err := d.FrameSearch(samples)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("FrameSearch() found %d frames, want 1", len(results))
	}

	tol := w.SamplesPerPulse()
	if abs(results[0].StartSample) > tol {
		t.Errorf("frame start = %d samples, want within %d of 0", results[0].StartSample, tol)
	}

	mismatches := 0
	for i, sym := range results[0].Syms {
		want := 0
		for j := 0; j < w.BitsPerSymbol(); j++ {
			if bits[i*w.BitsPerSymbol()+j] != 0 {
				want |= 1 << uint(j)
			}
		}
		if sym != want {
			mismatches++
		}
	}
	if mismatches != 0 {
		t.Errorf("demodulated %d/%d symbols incorrectly for a noiseless frame", mismatches, len(results[0].Syms))
	}
}

func TestFrameSearchFindsTwoFrames(t *testing.T) {
	w, d := newTestPair(t)
	bits1 := randomBits(w.SymbolsPerFrame()*w.BitsPerSymbol(), 1)
	bits2 := randomBits(w.SymbolsPerFrame()*w.BitsPerSymbol(), 2)
	frame1 := w.Modulate(bits1)
	frame2 := w.Modulate(bits2)
	gap := make([]float32, 5000)

	samples := make([]float32, 0, len(frame1)+len(gap)+len(frame2))
	samples = append(samples, frame1...)
	samples = append(samples, gap...)
	samples = append(samples, frame2...)

	results, err := d.FrameSearch(samples)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("FrameSearch() found %d frames, want 2", len(results))
	}

	tol := w.SamplesPerPulse()
	wantStart2 := len(frame1) + len(gap)
	if abs(results[0].StartSample) > tol {
		t.Errorf("first frame start = %d, want within %d of 0", results[0].StartSample, tol)
	}
	if abs(results[1].StartSample-wantStart2) > tol {
		t.Errorf("second frame start = %d, want within %d of %d", results[1].StartSample, tol, wantStart2)
	}
}

func TestDemodulateFrameLLRSign(t *testing.T) {
	w, d := newTestPair(t)
	if w.ModOrder() != 2 {
		t.Skip("LLR sign convention is only defined for binary modulation")
	}
	zeros := make([]byte, w.SymbolsPerFrame())
	samples := w.Modulate(zeros)
	results, err := d.FrameSearch(samples)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("FrameSearch() found %d frames, want 1", len(results))
	}
	for i, llr := range results[0].LLRs {
		if llr <= 0 {
			t.Errorf("LLR[%d] = %.3f for an all-zero codeword, want positive (bit 0 favored)", i, llr)
		}
	}
}

func TestFrameSearchIdempotent(t *testing.T) {
	w, d := newTestPair(t)
	bits := randomBits(w.SymbolsPerFrame()*w.BitsPerSymbol(), 999)
	samples := w.Modulate(bits)

	first, err := d.FrameSearch(samples)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	second, err := d.FrameSearch(samples)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("FrameSearch() returned %d results then %d on the same input", len(first), len(second))
	}
	for i := range first {
		if first[i].StartSample != second[i].StartSample {
			t.Errorf("result %d: start sample %d then %d on repeated calls", i, first[i].StartSample, second[i].StartSample)
		}
	}
}

func TestDemodulateFrameToleratesLowNoise(t *testing.T) {
	w, d := newTestPair(t)
	if w.ModOrder() != 2 {
		t.Skip("bit-error-rate check assumes binary modulation")
	}
	bits := randomBits(w.SymbolsPerFrame()*w.BitsPerSymbol(), 42)
	samples := w.Modulate(bits)

	// Light additive noise, well below the decoder's working range; a
	// noiseless-grade frame should still demodulate with zero bit errors.
	x := uint32(7)
	for i := range samples {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		noise := (float32(x%2000)/1000 - 1) * 0.01
		samples[i] += noise
	}

	results, err := d.FrameSearch(samples)
	if err != nil {
		t.Fatalf("FrameSearch() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("FrameSearch() found %d frames, want 1", len(results))
	}
	errs := 0
	for i, llr := range results[0].LLRs {
		want := byte(0)
		if llr < 0 {
			want = 1
		}
		if want != bits[i] {
			errs++
		}
	}
	if errs != 0 {
		t.Errorf("%d/%d bit errors under light noise, want 0", errs, len(bits))
	}
}

func TestFrameSearchRejectsHighOrder(t *testing.T) {
	cfg := testConfig()
	cfg.BitsPerSymbol = 2 // bypasses config.Validate, which normally forbids this
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	d := NewDemodulator(w, cfg)
	if _, err := d.FrameSearch(make([]float32, w.SamplesPerFrame())); err != ErrHighOrder {
		t.Errorf("FrameSearch() error = %v, want ErrHighOrder", err)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
