/*
NAME
  waveform.go

DESCRIPTION
  waveform.go builds the frequency-hopped M-ary FSK pulse bank and
  modulation table (component C1), and modulates a bit stream of coded
  symbols into audio samples.

LICENSE
  See LICENSE file in the project root.
*/

// Package fsk implements the frequency-hopped M-ary FSK waveform: pulse
// bank synthesis and modulation (C1), the pulse-energy matched filter
// (C3), frame search (C4) and the symbol demodulator (C5).
package fsk

import (
	"math"

	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/enthdegree/cicada/config"
)

// Waveform holds the precomputed pulse bank and modulation table for one
// configuration. It is immutable after construction and safe to share
// across goroutines.
type Waveform struct {
	cfg config.Config

	modOrder        int // Q = 2^b
	samplesPerPulse int // P
	numPulses       int // N_p = Q*H
	freqSpacing     float64
	startFreq       float64

	// pulsesCos and pulsesSin are N_p x P dense matrices; row k is pulse k.
	pulsesCos *mat.Dense
	pulsesSin *mat.Dense

	// modTable[s][h] is the pulse index for symbol value s at hop phase h.
	modTable [][]int

	// RateMismatch is true if fs/Rs did not round to an integer within
	// 1e-3; New logs a warning in this case but does not fail.
	RateMismatch bool
}

// New constructs a Waveform from cfg. Construction fails
// if the pulse bank would extend past Nyquist or if the samples-per-pulse
// computation degenerates.
func New(cfg config.Config) (*Waveform, error) {
	exact := cfg.SampleRate / cfg.SymbolRate
	spp := int(math.Round(exact))
	if spp < 2 {
		return nil, ErrShortPulse
	}

	modOrder := 1 << uint(cfg.BitsPerSymbol)
	numPulses := modOrder * cfg.HopFactor
	freqSpacing := cfg.Bandwidth / float64(numPulses)
	startFreq := cfg.CenterFreq - cfg.Bandwidth/2

	if startFreq+float64(numPulses)*freqSpacing >= cfg.SampleRate/2 {
		return nil, errors.Wrapf(ErrNyquist, "f0=%.2f Np*df=%.2f fs/2=%.2f",
			startFreq, float64(numPulses)*freqSpacing, cfg.SampleRate/2)
	}

	w := &Waveform{
		cfg:             cfg,
		modOrder:        modOrder,
		samplesPerPulse: spp,
		numPulses:       numPulses,
		freqSpacing:     freqSpacing,
		startFreq:       startFreq,
		RateMismatch:    math.Abs(float64(spp)-exact) > 1e-3,
	}
	if w.RateMismatch && cfg.Logger != nil {
		cfg.Logger.Warn("fsk: symbol rate isn't a fraction of the sample rate",
			"fs", cfg.SampleRate, "Rs", cfg.SymbolRate, "spp", spp)
	}

	w.buildPulseBank()
	w.modTable = defaultModTable(modOrder, cfg.HopFactor, cfg.Pattern)

	return w, nil
}

// buildPulseBank fills pulsesCos and pulsesSin with unit-average-power
// windowed tones, one per pulse index.
func (w *Waveform) buildPulseBank() {
	spp := w.samplesPerPulse
	win := periodicHann(spp)

	var sumWSq float64
	for _, v := range win {
		sumWSq += v * v
	}
	gain := math.Sqrt(float64(spp) / sumWSq)

	cosData := make([]float64, w.numPulses*spp)
	sinData := make([]float64, w.numPulses*spp)
	fs := w.cfg.SampleRate
	for k := 0; k < w.numPulses; k++ {
		tone := w.startFreq + float64(k)*w.freqSpacing
		base := k * spp
		for n := 0; n < spp; n++ {
			phase := 2 * math.Pi * tone * float64(n) / fs
			cosData[base+n] = gain * win[n] * math.Cos(phase)
			sinData[base+n] = gain * win[n] * math.Sin(phase)
		}
	}
	w.pulsesCos = mat.NewDense(w.numPulses, spp, cosData)
	w.pulsesSin = mat.NewDense(w.numPulses, spp, sinData)
}

// periodicHann returns a periodic (DFT-even) Hann window of length n: the
// (n+1)-point symmetric Hann window with its last sample dropped.
func periodicHann(n int) []float64 {
	full := window.Hann(n + 1)
	return full[:n]
}

// defaultModTable builds T[s][h] = H*s + ((p*h) mod H).
func defaultModTable(modOrder, hopFactor, pattern int) [][]int {
	t := make([][]int, modOrder)
	for s := 0; s < modOrder; s++ {
		row := make([]int, hopFactor)
		for h := 0; h < hopFactor; h++ {
			row[h] = hopFactor*s + ((pattern * h) % hopFactor)
		}
		t[s] = row
	}
	return t
}

// Modulate partitions codedBits into symbols (LSB-first grouping of
// BitsPerSymbol bits, zero-padded if necessary) and emits the
// corresponding pulses concatenated with no gap or overlap.
func (w *Waveform) Modulate(codedBits []byte) []float32 {
	b := w.cfg.BitsPerSymbol
	nSyms := (len(codedBits) + b - 1) / b
	if nSyms == 0 {
		nSyms = 0
	}
	spp := w.samplesPerPulse
	out := make([]float32, nSyms*spp)

	for t := 0; t < nSyms; t++ {
		sym := 0
		for j := 0; j < b; j++ {
			idx := t*b + j
			if idx < len(codedBits) && codedBits[idx] != 0 {
				sym |= 1 << uint(j)
			}
		}
		h := t % w.cfg.HopFactor
		pidx := w.modTable[sym][h]
		row := w.pulsesCos.RawRowView(pidx)
		copy(out[t*spp:(t+1)*spp], toFloat32(row))
	}
	return out
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// SamplesPerPulse returns P.
func (w *Waveform) SamplesPerPulse() int { return w.samplesPerPulse }

// NumPulses returns N_p = Q*H.
func (w *Waveform) NumPulses() int { return w.numPulses }

// ModOrder returns Q = 2^b.
func (w *Waveform) ModOrder() int { return w.modOrder }

// HopFactor returns H.
func (w *Waveform) HopFactor() int { return w.cfg.HopFactor }

// BitsPerSymbol returns b.
func (w *Waveform) BitsPerSymbol() int { return w.cfg.BitsPerSymbol }

// SymbolsPerFrame returns S.
func (w *Waveform) SymbolsPerFrame() int { return w.cfg.SymbolsPerFrame }

// SamplesPerFrame returns S*P, the fixed length of one modulated frame.
func (w *Waveform) SamplesPerFrame() int { return w.cfg.SymbolsPerFrame * w.samplesPerPulse }

// ModTable returns T[s][h], the pulse index for symbol s at hop phase h.
func (w *Waveform) ModTable() [][]int { return w.modTable }

// PulsesCos returns the N_p x P matrix of in-phase pulses.
func (w *Waveform) PulsesCos() *mat.Dense { return w.pulsesCos }

// PulsesSin returns the N_p x P matrix of quadrature pulses.
func (w *Waveform) PulsesSin() *mat.Dense { return w.pulsesSin }
