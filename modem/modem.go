/*
NAME
  modem.go

DESCRIPTION
  modem.go is the glue between a fixed-size byte payload and a frame of
  coded symbols: bit packing, the optional whitening mask, the optional
  LDPC inner code, and per-call frame deduplication (components C2, C6).

LICENSE
  See LICENSE file in the project root.
*/

// Package modem adapts byte payloads to/from frames of FSK symbols,
// wiring together the whitening mask and the optional LDPC inner code.
package modem

import (
	"github.com/pkg/errors"

	"github.com/enthdegree/cicada/config"
	"github.com/enthdegree/cicada/fsk"
	"github.com/enthdegree/cicada/ldpc"
)

// Modem binds a waveform, demodulator, and LDPC code to one
// configuration. Like its dependencies it is immutable after
// construction and safe to share across goroutines.
type Modem struct {
	cfg              config.Config
	wf               *fsk.Waveform
	demod            *fsk.Demodulator
	code             *ldpc.Code
	mask             []byte
	dataBitsPerFrame int
}

// New constructs a Modem. It fails if UseLDPC is set and the configured
// symbols-per-frame/bits-per-symbol don't match the fixed LDPC code's
// N coded bits.
func New(cfg config.Config, wf *fsk.Waveform, demod *fsk.Demodulator) (*Modem, error) {
	if cfg.UseLDPC && cfg.SymbolsPerFrame*cfg.BitsPerSymbol != ldpc.N {
		return nil, errors.Errorf(
			"modem: symbols per frame (%d) * bits per symbol (%d) must equal the LDPC code's %d coded bits",
			cfg.SymbolsPerFrame, cfg.BitsPerSymbol, ldpc.N)
	}

	m := &Modem{cfg: cfg, wf: wf, demod: demod}
	if cfg.UseLDPC {
		m.code = ldpc.New(cfg.LDPCAlpha, cfg.LDPCClip)
		m.dataBitsPerFrame = ldpc.K
	} else {
		m.dataBitsPerFrame = cfg.SymbolsPerFrame * cfg.BitsPerSymbol
	}
	if cfg.UseWhitening {
		m.mask = buildWhiteningMask()
	}
	return m, nil
}

// DataBitsPerFrame returns data_bits_per_frame, the truncation target for
// a frame's payload: K with the LDPC code enabled (which requires S*b = N),
// and S*b with it disabled.
func (m *Modem) DataBitsPerFrame() int { return m.dataBitsPerFrame }

// EncodeFrame packs data into one frame's worth of audio samples. Input
// longer than DataBitsPerFrame bits is truncated with a warning; short
// input is zero-padded.
func (m *Modem) EncodeFrame(data []byte) ([]float32, error) {
	bits := bytesToBits(data)
	if len(bits) > m.dataBitsPerFrame {
		config.WarnOnce(m.cfg.Logger, new(bool), "modem: input truncated to data_bits_per_frame",
			"have", len(bits), "want", m.dataBitsPerFrame)
		bits = bits[:m.dataBitsPerFrame]
	} else if len(bits) < m.dataBitsPerFrame {
		padded := make([]byte, m.dataBitsPerFrame)
		copy(padded, bits)
		bits = padded
	}

	if m.mask != nil {
		xorMask(bits, m.mask)
	}

	var coded []byte
	if m.code != nil {
		var err error
		coded, err = m.code.Encode(bits)
		if err != nil {
			return nil, errors.Wrap(err, "modem: ldpc encode")
		}
	} else {
		coded = bits
	}

	return m.wf.Modulate(coded), nil
}

// DecodedFrame is one successfully demodulated and decoded frame.
type DecodedFrame struct {
	Bytes       []byte
	StartSample int
	LDPCIters   int
	LDPCOK      bool
}

// DecodeSamples runs frame search over samples and LDPC-decodes (or
// hard-decides, if LDPC is disabled) every frame found. Frames whose
// exact byte string has already been produced by this call are dropped
// (per-call deduplication only).
func (m *Modem) DecodeSamples(samples []float32) ([]DecodedFrame, error) {
	drs, err := m.demod.FrameSearch(samples)
	if err != nil {
		return nil, errors.Wrap(err, "modem: frame search")
	}

	seen := make(map[string]bool, len(drs))
	out := make([]DecodedFrame, 0, len(drs))
	for _, dr := range drs {
		var bits []byte
		var iters int
		var ok bool
		if m.code != nil {
			res, err := m.code.Decode(dr.LLRs, m.cfg.LDPCMaxIters)
			if err != nil {
				continue
			}
			bits, iters, ok = res.Bits, res.Iters, res.Converged
		} else {
			bits = hardDecideFromLLRs(dr.LLRs)
			ok = true
		}

		if len(bits) < m.dataBitsPerFrame {
			continue
		}
		bits = bits[:m.dataBitsPerFrame]
		if m.mask != nil {
			xorMask(bits, m.mask)
		}
		data := bitsToBytes(bits)

		key := string(data)
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, DecodedFrame{
			Bytes:       data,
			StartSample: dr.StartSample,
			LDPCIters:   iters,
			LDPCOK:      ok,
		})
	}
	return out, nil
}

// hardDecideFromLLRs converts bit LLRs directly to hard bits (positive
// => 0) when the LDPC inner code is disabled.
func hardDecideFromLLRs(llrs []float64) []byte {
	bits := make([]byte, len(llrs))
	for i, l := range llrs {
		if l < 0 {
			bits[i] = 1
		}
	}
	return bits
}

// bytesToBits unpacks data MSB-first into one bit per output byte.
func bytesToBits(data []byte) []byte {
	bits := make([]byte, len(data)*8)
	for i, b := range data {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = (b >> uint(7-j)) & 1
		}
	}
	return bits
}

// bitsToBytes packs bits MSB-first into bytes, zero-padding the final
// byte if necessary.
func bitsToBytes(bits []byte) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}
