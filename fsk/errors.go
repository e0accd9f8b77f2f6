package fsk

import "github.com/pkg/errors"

// Sentinel errors. ErrNyquist and ErrShortPulse are construction-time
// configuration failures returned by New; the others are returned by the
// demodulator at run time.
var (
	// ErrNyquist is returned when the configured carrier/bandwidth would
	// place energy at or above the Nyquist frequency.
	ErrNyquist = errors.New("fsk: pulse bank extends at or beyond Nyquist frequency")

	// ErrShortPulse is returned when the computed samples-per-pulse is
	// too small to carry a windowed tone.
	ErrShortPulse = errors.New("fsk: samples per pulse must be at least 2")

	// ErrShortBuffer is returned by the demodulator when the sample
	// buffer is shorter than one pulse.
	ErrShortBuffer = errors.New("fsk: sample buffer shorter than one pulse")

	// ErrHighOrder is returned when bit-LLR extraction is attempted for a
	// modulation order above 1 bit/symbol; those are reserved for now.
	ErrHighOrder = errors.New("fsk: bit LLRs are only defined for 1 bit/symbol")

	// ErrFrameTooShort is returned when a candidate start column does not
	// leave room for a full frame in the pulse-energy map.
	ErrFrameTooShort = errors.New("fsk: pulse-energy map too short for a full frame at this start")
)
