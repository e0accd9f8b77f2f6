package modem

import (
	"bytes"
	"testing"

	"github.com/enthdegree/cicada/config"
	"github.com/enthdegree/cicada/fsk"
)

func newTestModem(t *testing.T) *Modem {
	t.Helper()
	cfg := config.Default()
	wf, err := fsk.New(cfg)
	if err != nil {
		t.Fatalf("fsk.New() = %v", err)
	}
	demod := fsk.NewDemodulator(wf, cfg)
	m, err := New(cfg, wf, demod)
	if err != nil {
		t.Fatalf("modem.New() = %v", err)
	}
	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := newTestModem(t)
	payload := []byte("hello cicada")

	samples, err := m.EncodeFrame(payload)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}

	frames, err := m.DecodeSamples(samples)
	if err != nil {
		t.Fatalf("DecodeSamples() error = %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("DecodeSamples() found %d frames, want 1", len(frames))
	}
	if !frames[0].LDPCOK {
		t.Error("LDPC decode did not converge on a noiseless frame")
	}

	padded := make([]byte, len(frames[0].Bytes))
	copy(padded, payload)
	if !bytes.Equal(frames[0].Bytes, padded) {
		t.Errorf("decoded payload = %q, want %q (zero-padded)", frames[0].Bytes, padded)
	}
}

func TestEncodeFrameTruncatesOversizedInput(t *testing.T) {
	m := newTestModem(t)
	big := bytes.Repeat([]byte{0xAB}, m.DataBitsPerFrame()) // far more bits than fit
	if _, err := m.EncodeFrame(big); err != nil {
		t.Fatalf("EncodeFrame() with oversized input should truncate, not fail: %v", err)
	}
}

func TestDecodeSamplesDedupesPerCall(t *testing.T) {
	m := newTestModem(t)
	payload := []byte("dup")
	frame, err := m.EncodeFrame(payload)
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	gap := make([]float32, 5000)
	samples := make([]float32, 0, len(frame)*2+len(gap))
	samples = append(samples, frame...)
	samples = append(samples, gap...)
	samples = append(samples, frame...)

	frames, err := m.DecodeSamples(samples)
	if err != nil {
		t.Fatalf("DecodeSamples() error = %v", err)
	}
	if len(frames) != 1 {
		t.Errorf("DecodeSamples() returned %d frames for two identical payloads, want 1 (deduped)", len(frames))
	}
}
