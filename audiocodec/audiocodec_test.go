package audiocodec

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

// memWriteSeeker is a minimal in-memory io.WriteSeeker, letting tests
// capture an encoder's output without touching the filesystem.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (ws *memWriteSeeker) Write(p []byte) (int, error) {
	end := ws.pos + len(p)
	if end > len(ws.buf) {
		grown := make([]byte, end)
		copy(grown, ws.buf)
		ws.buf = grown
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos = end
	return len(p), nil
}

func (ws *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = ws.pos + int(offset)
	case io.SeekEnd:
		newPos = len(ws.buf) + int(offset)
	default:
		return 0, errors.New("invalid whence")
	}
	if newPos < 0 {
		return 0, errors.New("negative position")
	}
	ws.pos = newPos
	return int64(newPos), nil
}

func TestWriteReadMonoRoundTrip(t *testing.T) {
	const sr = 44100
	samples := make([]float32, sr/10)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
	}

	ws := &memWriteSeeker{}
	if err := WriteMono(ws, samples, sr, 16); err != nil {
		t.Fatalf("WriteMono() error = %v", err)
	}

	got, gotRate, err := ReadMono(bytes.NewReader(ws.buf))
	if err != nil {
		t.Fatalf("ReadMono() error = %v", err)
	}
	if gotRate != sr {
		t.Errorf("ReadMono() sample rate = %v, want %v", gotRate, sr)
	}
	if len(got) != len(samples) {
		t.Fatalf("ReadMono() returned %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if math.Abs(float64(got[i]-samples[i])) > 1e-3 {
			t.Fatalf("sample %d = %v, want %v (16-bit quantization tolerance)", i, got[i], samples[i])
		}
	}
}
