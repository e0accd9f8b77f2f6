/*
NAME
  demod.go

DESCRIPTION
  demod.go implements the pulse-energy matched filter (C3), frame search
  (C4) and the per-symbol demodulator with bit log-likelihood ratios (C5).

LICENSE
  See LICENSE file in the project root.
*/

package fsk

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/enthdegree/cicada/config"
)

// Demodulator binds a Waveform's pulse bank and hop table to the
// demodulation parameters (pulse fraction, frame-search window ratios,
// median detrend length). Like Waveform, it is immutable after
// construction and safe to share across goroutines.
type Demodulator struct {
	wf  *Waveform
	cfg config.Config
}

// NewDemodulator builds a Demodulator over wf using the demod-related
// fields of cfg (PulseFrac, FrameSearchWin, FrameSearchWinStep,
// MedianLenPulses).
func NewDemodulator(wf *Waveform, cfg config.Config) *Demodulator {
	return &Demodulator{wf: wf, cfg: cfg}
}

// DemodResult is the output of one frame demodulation: the sample/column
// where the frame starts, the hard symbol decisions, and the bit
// log-likelihood ratios (positive => bit 0 more likely).
type DemodResult struct {
	StartColumn int
	StartSample int
	Syms        []int
	LLRs        []float64
}

// PulseEnergyMap computes the strided matched-filter energy of x against
// every pulse in the bank: a dense [N_p x n] matrix, mean
// normalized per row and high-pass detrended by subtracting a running
// median of kernel length 2*floor(medianLenPulses*pulseFrac/2)+1 columns.
func (d *Demodulator) PulseEnergyMap(x []float32, step int) (*mat.Dense, error) {
	P := d.wf.SamplesPerPulse()
	if len(x) < P {
		return nil, ErrShortBuffer
	}
	n := 1 + (len(x)-P)/step

	// Build the P x n Hankel view: column i is x[i*step : i*step+P].
	hData := make([]float64, P*n)
	for i := 0; i < n; i++ {
		base := i * step
		for row := 0; row < P; row++ {
			hData[row*n+i] = float64(x[base+row])
		}
	}
	X := mat.NewDense(P, n, hData)

	var C, S mat.Dense
	C.Mul(d.wf.PulsesCos(), X)
	S.Mul(d.wf.PulsesSin(), X)

	Np := d.wf.NumPulses()
	M := mat.NewDense(Np, n, nil)
	for k := 0; k < Np; k++ {
		for i := 0; i < n; i++ {
			c := C.At(k, i)
			s := S.At(k, i)
			M.Set(k, i, c*c+s*s)
		}
	}

	meanNormalizeRows(M)

	kernel := 2*((d.cfg.MedianLenPulses*d.cfg.PulseFrac)/2) + 1
	detrendRows(M, kernel)

	return M, nil
}

// meanNormalizeRows divides each row of m by its own mean, in place.
func meanNormalizeRows(m *mat.Dense) {
	rows, cols := m.Dims()
	for k := 0; k < rows; k++ {
		row := m.RawRowView(k)
		mean := floats.Sum(row) / float64(cols)
		if mean == 0 {
			continue
		}
		for i := range row {
			row[i] /= mean
		}
	}
}

// detrendRows subtracts a running median of the given odd kernel length
// from every row of m, in place, zero-padding at the boundaries (matching
// scipy.signal.medfilt's default edge behavior).
func detrendRows(m *mat.Dense, kernel int) {
	if kernel < 1 {
		kernel = 1
	}
	if kernel%2 == 0 {
		kernel++
	}
	half := kernel / 2
	rows, cols := m.Dims()
	window := make([]float64, kernel)
	for k := 0; k < rows; k++ {
		row := m.RawRowView(k)
		base := make([]float64, cols)
		for i := 0; i < cols; i++ {
			for j := 0; j < kernel; j++ {
				idx := i - half + j
				if idx < 0 || idx >= cols {
					window[j] = 0
				} else {
					window[j] = row[idx]
				}
			}
			sort.Float64s(window)
			base[i] = stat.Quantile(0.5, stat.Empirical, window, nil)
		}
		for i := 0; i < cols; i++ {
			row[i] -= base[i]
		}
	}
}

// symbolEnergyMap gathers the frame's per-symbol energies for a candidate
// start column, following the hop schedule: Es[s][t] = Ep[T[s][t%H], start+t*pulseFrac].
func (d *Demodulator) symbolEnergyMap(Ep *mat.Dense, start int) (*mat.Dense, error) {
	S := d.wf.SymbolsPerFrame()
	Q := d.wf.ModOrder()
	H := d.wf.HopFactor()
	pfrac := d.cfg.PulseFrac
	_, cols := Ep.Dims()

	lastCol := start + (S-1)*pfrac
	if lastCol >= cols {
		return nil, ErrFrameTooShort
	}

	T := d.wf.ModTable()
	Es := mat.NewDense(Q, S, nil)
	for t := 0; t < S; t++ {
		col := start + t*pfrac
		h := t % H
		for s := 0; s < Q; s++ {
			Es.Set(s, t, Ep.At(T[s][h], col))
		}
	}
	return Es, nil
}

// frameEnergyScore computes Φ(c) for every column c at which a full frame
// fits.
func (d *Demodulator) frameEnergyScore(Ep *mat.Dense) []float64 {
	S := d.wf.SymbolsPerFrame()
	pfrac := d.cfg.PulseFrac
	_, cols := Ep.Dims()

	nOff := cols - (S-1)*pfrac
	if nOff < 1 {
		return nil
	}
	phi := make([]float64, nOff)
	for c := 0; c < nOff; c++ {
		Es, err := d.symbolEnergyMap(Ep, c)
		if err != nil {
			continue
		}
		rows, cols := Es.Dims()
		var sum float64
		for t := 0; t < cols; t++ {
			max := math.Inf(-1)
			for s := 0; s < rows; s++ {
				if v := Es.At(s, t); v > max {
					max = v
				}
			}
			sum += max
		}
		phi[c] = sum
	}
	return phi
}

// FrameSearch scans x for frame starts and demodulates each one found.
func (d *Demodulator) FrameSearch(x []float32) ([]DemodResult, error) {
	if d.wf.ModOrder() != 2 {
		return nil, ErrHighOrder
	}

	pfrac := d.cfg.PulseFrac
	P := d.wf.SamplesPerPulse()
	step := int(math.Round(float64(P) / float64(pfrac)))
	if step < 1 {
		step = 1
	}

	Ep, err := d.PulseEnergyMap(x, step)
	if err != nil {
		if errors.Is(err, ErrShortBuffer) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "fsk: pulse energy map")
	}

	phi := d.frameEnergyScore(Ep)
	if len(phi) == 0 {
		return nil, nil
	}

	S := d.wf.SymbolsPerFrame()
	winLen := int(math.Ceil(d.cfg.FrameSearchWin * float64(S) * float64(pfrac)))
	winStep := int(math.Ceil(d.cfg.FrameSearchWinStep * float64(S) * float64(pfrac)))
	if winLen < 1 {
		winLen = 1
	}
	if winStep < 1 {
		winStep = 1
	}

	// Slide a window across phi, picking the local argmax each step. The
	// window is clamped to the available range rather than skipped near
	// the end, so short buffers (a handful of frames, as in tests) still
	// yield one candidate per distinct energy peak instead of collapsing
	// to a single global argmax.
	var starts []int
	for s := 0; s < len(phi); s += winStep {
		end := s + winLen
		if end > len(phi) {
			end = len(phi)
		}
		starts = append(starts, s+argmax(phi[s:end]))
	}
	// Append one final window anchored at the tail to avoid boundary loss.
	tail := len(phi) - winLen
	if tail < 0 {
		tail = 0
	}
	starts = append(starts, tail+argmax(phi[tail:]))

	starts = dedupeSorted(starts)

	results := make([]DemodResult, 0, len(starts))
	for _, c := range starts {
		Es, err := d.symbolEnergyMap(Ep, c)
		if err != nil {
			continue
		}
		results = append(results, d.demodulateFrame(Es, c, step))
	}
	return results, nil
}

// demodulateFrame converts a symbol-energy map at a candidate start into
// hard symbol decisions and bit LLRs.
func (d *Demodulator) demodulateFrame(Es *mat.Dense, startCol, step int) DemodResult {
	Q, S := Es.Dims()
	syms := make([]int, S)
	llrs := make([]float64, 0, S*d.wf.BitsPerSymbol())

	col := make([]float64, Q)
	for t := 0; t < S; t++ {
		for s := 0; s < Q; s++ {
			col[s] = Es.At(s, t)
		}
		syms[t] = argmax(col)

		max := floats.Max(col)
		var sumExp float64
		probs := make([]float64, Q)
		for s, v := range col {
			e := math.Exp(v - max)
			probs[s] = e
			sumExp += e
		}
		for s := range probs {
			probs[s] = math.Log(probs[s] / sumExp)
		}
		if Q == 2 {
			llrs = append(llrs, probs[0]-probs[1])
		}
	}

	return DemodResult{
		StartColumn: startCol,
		StartSample: startCol * (d.wf.SamplesPerPulse() / d.cfg.PulseFrac),
		Syms:        syms,
		LLRs:        llrs,
	}
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// dedupeSorted removes duplicate values from v, preserving the order of
// first occurrence, then returns the result sorted ascending.
func dedupeSorted(v []int) []int {
	seen := make(map[int]bool, len(v))
	out := make([]int, 0, len(v))
	for _, x := range v {
		if seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	sort.Ints(out)
	return out
}
