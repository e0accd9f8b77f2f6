/*
NAME
  config.go

DESCRIPTION
  config.go contains the tunable parameters for the cicada acoustic link:
  waveform/demodulator geometry, LDPC decoder knobs, and the frame-search
  window ratios, together with a Validate method.

LICENSE
  See LICENSE file in the project root.
*/

// Package config collects the tunable parameters shared across the cicada
// acoustic link (waveform, demodulator, LDPC, modem) into one validated
// struct.
package config

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// Logger is the logging interface accepted throughout this module. It is
// satisfied by *logging.Logger from github.com/ausocean/utils/logging.
type Logger = logging.Logger

// Default waveform/demodulator parameters, taken from the literal
// scenario values.
const (
	DefaultSampleRate      = 44100.0
	DefaultCenterFreq      = 16500.0
	DefaultBandwidth       = 3000.0
	DefaultSymbolRate      = 44100.0 / 128.0
	DefaultBitsPerSymbol   = 1
	DefaultHopFactor       = 63
	DefaultSymbolsPerFrame = 1024
	DefaultPattern         = 16
	DefaultPulseFrac       = 8

	DefaultFrameSearchWin     = 1.2
	DefaultFrameSearchWinStep = 0.3
	DefaultMedianLenPulses    = 8

	// DefaultCodedBits and DefaultMessageBits are the fixed LDPC code
	// dimensions (N_c, K).
	DefaultCodedBits   = 1024
	DefaultMessageBits = 513

	DefaultLDPCAlpha    = 0.8
	DefaultLDPCClip     = 20.0
	DefaultLDPCMaxIters = 300

	// DefaultHeaderMessageChars is the width of the ASCII header_message
	// field in the 64-byte frame.
	DefaultHeaderMessageChars = 11

	// FrameBytes is the fixed size of a wire frame: 5-byte header prefix
	// (timestamp+word_count) + 11-byte message + 48-byte signature.
	FrameBytes = 64
)

// Config gathers the tunables for one waveform/demodulator/LDPC instance.
type Config struct {
	// SampleRate, CenterFreq, Bandwidth, SymbolRate define the FSK carrier
	// geometry (fs, fc, bw, Rs in Hz).
	SampleRate float64
	CenterFreq float64
	Bandwidth  float64
	SymbolRate float64

	// BitsPerSymbol, HopFactor, SymbolsPerFrame, Pattern are the
	// modulation-order / hop-schedule parameters (b, H, S, p).
	BitsPerSymbol   int
	HopFactor       int
	SymbolsPerFrame int
	Pattern         int

	// PulseFrac is the fine-search oversample factor used by the
	// pulse-energy map and frame search.
	PulseFrac int

	// FrameSearchWin and FrameSearchWinStep are the window-length and
	// window-step ratios (in units of frames) used to slide across the
	// frame-energy score.
	FrameSearchWin     float64
	FrameSearchWinStep float64

	// MedianLenPulses is the running-median kernel length, in pulses, used
	// to detrend the pulse-energy map.
	MedianLenPulses int

	// LDPCAlpha, LDPCClip, LDPCMaxIters configure the normalized min-sum
	// belief-propagation decoder.
	LDPCAlpha    float64
	LDPCClip     float64
	LDPCMaxIters int

	// UseLDPC and UseWhitening toggle the optional inner code and
	// whitening mask.
	UseLDPC      bool
	UseWhitening bool

	// Logger receives Debug/Info/Warn-level diagnostics. May be nil, in
	// which case diagnostics are discarded.
	Logger Logger
}

// Default returns the literal scenario configuration used in testing and
// documentation.
func Default() Config {
	return Config{
		SampleRate:         DefaultSampleRate,
		CenterFreq:         DefaultCenterFreq,
		Bandwidth:          DefaultBandwidth,
		SymbolRate:         DefaultSymbolRate,
		BitsPerSymbol:      DefaultBitsPerSymbol,
		HopFactor:          DefaultHopFactor,
		SymbolsPerFrame:    DefaultSymbolsPerFrame,
		Pattern:            DefaultPattern,
		PulseFrac:          DefaultPulseFrac,
		FrameSearchWin:     DefaultFrameSearchWin,
		FrameSearchWinStep: DefaultFrameSearchWinStep,
		MedianLenPulses:    DefaultMedianLenPulses,
		LDPCAlpha:          DefaultLDPCAlpha,
		LDPCClip:           DefaultLDPCClip,
		LDPCMaxIters:       DefaultLDPCMaxIters,
		UseLDPC:            true,
		UseWhitening:       true,
	}
}

// Validate checks the config for internal consistency, returning a
// descriptive error for the first problem found. This is a configuration
// error.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return errors.New("config: sample rate must be positive")
	case c.Bandwidth <= 0:
		return errors.New("config: bandwidth must be positive")
	case c.SymbolRate <= 0:
		return errors.New("config: symbol rate must be positive")
	case c.BitsPerSymbol <= 0:
		return errors.New("config: bits per symbol must be positive")
	case c.BitsPerSymbol > 1:
		return errors.New("config: modulation orders above 1 bit/symbol are reserved")
	case c.HopFactor <= 0:
		return errors.New("config: hop factor must be positive")
	case c.SymbolsPerFrame <= 0:
		return errors.New("config: symbols per frame must be positive")
	case c.PulseFrac <= 0:
		return errors.New("config: pulse fraction must be positive")
	case c.FrameSearchWin <= 0 || c.FrameSearchWinStep <= 0:
		return errors.New("config: frame search window ratios must be positive")
	case c.LDPCAlpha <= 0 || c.LDPCAlpha > 1:
		return errors.New("config: LDPC alpha must be in (0,1]")
	case c.LDPCClip <= 0:
		return errors.New("config: LDPC clip must be positive")
	case c.LDPCMaxIters <= 0:
		return errors.New("config: LDPC max iterations must be positive")
	}
	return nil
}

// warnf logs a Warn-level message if l is non-nil.
func warnf(l Logger, msg string, params ...interface{}) {
	if l == nil {
		return
	}
	l.Warn(msg, params...)
}

// WarnOnce logs msg via l.Warn at most once per fired flag; callers pass a
// bool pointer they own to track whether the warning already fired within
// the current call.
func WarnOnce(l Logger, fired *bool, msg string, params ...interface{}) {
	if *fired {
		return
	}
	*fired = true
	warnf(l, msg, params...)
}
