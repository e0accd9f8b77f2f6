/*
NAME
  ldpc.go

DESCRIPTION
  ldpc.go constructs the fixed regular LDPC code used by the modem's
  inner coder (systematic encoder, normalized min-sum belief-propagation
  decoder) from a compile-time-constant construction, so that every
  instance of this package builds byte-identical matrices without
  negotiation between sender and receiver.

LICENSE
  See LICENSE file in the project root.
*/

// Package ldpc implements a fixed regular (d_v=2, d_c=4) binary LDPC
// code: N = 1024 coded bits, K = 513 message bits, systematic, with a
// normalized min-sum belief-propagation decoder.
package ldpc

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Code dimensions, fixed by construction.
const (
	N = 1024 // coded bits
	K = 513  // message bits
	M = N - K // parity bits / check rows
)

// construction constants for the deterministic message-part connectivity:
// a fixed, reproducible, closed-form formula, not a seeded PRNG.
const (
	step1    = 181 // coprime to M; gives a bijective second-endpoint map mod M
	offset1  = 97
	wrapStep = 53 // de-collides the two message columns that wrap past M
)

// Code holds the fixed parity-check matrix (as row/column adjacency
// lists) and is safe to share across goroutines; it is built once at
// process start by New and never mutated afterward.
type Code struct {
	huRows   [][]int // huRows[r] = sorted message-column indices (0..K-1) touching check row r
	row2cols [][]int // full H adjacency: row -> coded-bit columns (0..N-1), sorted
	col2rows [][]int // full H adjacency: coded-bit column -> rows

	// posInRow[r][c] / posInCol[c][r] locate an edge's message slot within
	// its row's or column's message slice.
	posInRow []map[int]int
	posInCol []map[int]int

	alpha float64
	clip  float64
}

// New builds the fixed LDPC code. alpha and clip parameterize the
// normalized min-sum decoder; they do not affect the
// matrices themselves.
func New(alpha, clip float64) *Code {
	c := &Code{alpha: alpha, clip: clip}
	c.huRows = buildHuRows()
	c.buildFullAdjacency()
	return c
}

// buildHuRows assigns each message column exactly two check rows via a
// fixed closed-form map (no Gaussian elimination, no randomness): column
// c connects to row c%M and to row (c*step1+offset1+wrapStep*(c/M))%M,
// bumped by one if the two rows would otherwise coincide. This gives
// every message column degree exactly 2 and spreads connections close
// to evenly over the M check rows.
func buildHuRows() [][]int {
	rows := make([][]int, M)
	for c := 0; c < K; c++ {
		r1 := c % M
		r2 := (c*step1 + offset1 + wrapStep*(c/M)) % M
		if r2 == r1 {
			r2 = (r2 + 1) % M
		}
		rows[r1] = append(rows[r1], c)
		rows[r2] = append(rows[r2], c)
	}
	for r := range rows {
		sort.Ints(rows[r])
	}
	return rows
}

// buildFullAdjacency appends the parity part of H: a bidiagonal
// "staircase" accumulator (H_p[i][i]=1, H_p[i][i-1]=1 for i>0), without
// per-block rotation since the parity width here isn't a multiple of a
// circulant block size. It is invertible by construction (unit
// lower-triangular) so the systematic encoder never needs to solve a
// linear system.
func (c *Code) buildFullAdjacency() {
	c.row2cols = make([][]int, M)
	for r := 0; r < M; r++ {
		cols := append([]int(nil), c.huRows[r]...)
		cols = append(cols, K+r) // diagonal parity entry
		if r > 0 {
			cols = append(cols, K+r-1) // sub-diagonal parity entry
		}
		sort.Ints(cols)
		c.row2cols[r] = cols
	}

	c.col2rows = make([][]int, N)
	for r, cols := range c.row2cols {
		for _, col := range cols {
			c.col2rows[col] = append(c.col2rows[col], r)
		}
	}

	c.posInRow = make([]map[int]int, M)
	for r, cols := range c.row2cols {
		m := make(map[int]int, len(cols))
		for i, col := range cols {
			m[col] = i
		}
		c.posInRow[r] = m
	}
	c.posInCol = make([]map[int]int, N)
	for col, rows := range c.col2rows {
		m := make(map[int]int, len(rows))
		for i, r := range rows {
			m[r] = i
		}
		c.posInCol[col] = m
	}
}

// Encode maps K message bits to N coded bits: u ∥ p, where the parity
// bits p are produced by a forward-substitution accumulate over the
// message-part syndrome s = H_u·u (mod 2).
func (c *Code) Encode(u []byte) ([]byte, error) {
	if len(u) != K {
		return nil, errors.Errorf("ldpc: message must have length %d, got %d", K, len(u))
	}
	s := make([]byte, M)
	for r := 0; r < M; r++ {
		var acc byte
		for _, col := range c.huRows[r] {
			acc ^= u[col]
		}
		s[r] = acc
	}
	p := make([]byte, M)
	p[0] = s[0]
	for i := 1; i < M; i++ {
		p[i] = s[i] ^ p[i-1]
	}
	out := make([]byte, N)
	copy(out, u)
	copy(out[K:], p)
	return out, nil
}

// syndromeOK reports whether hard satisfies every parity check.
func (c *Code) syndromeOK(hard []byte) bool {
	for _, cols := range c.row2cols {
		var acc byte
		for _, col := range cols {
			acc ^= hard[col]
		}
		if acc != 0 {
			return false
		}
	}
	return true
}

// DecodeResult carries the decoder's hard-decision output plus its
// iteration count and convergence status.
type DecodeResult struct {
	Bits      []byte
	Iters     int
	Converged bool
}

// Decode runs normalized min-sum belief propagation over the channel
// LLRs (positive => bit 0), clipping messages to ±clip and scaling
// check-to-variable messages by alpha. It stops early
// once the hard decision satisfies every parity check, and otherwise
// runs up to maxIters iterations.
func (c *Code) Decode(llr []float64, maxIters int) (DecodeResult, error) {
	if len(llr) != N {
		return DecodeResult{}, errors.Errorf("ldpc: llr vector must have length %d, got %d", N, len(llr))
	}

	// q[col] holds one soft value per incident edge, indexed the same way
	// as col2rows[col]; rmsg[row] holds one soft value per incident edge,
	// indexed the same way as row2cols[row].
	q := make([][]float64, N)
	for col := 0; col < N; col++ {
		q[col] = make([]float64, len(c.col2rows[col]))
		for i := range q[col] {
			q[col][i] = llr[col]
		}
	}
	rmsg := make([][]float64, M)
	for r := range rmsg {
		rmsg[r] = make([]float64, len(c.row2cols[r]))
	}

	hard := make([]byte, N)
	var iters int
	converged := false

	for iters = 1; iters <= maxIters; iters++ {
		// Check-to-variable update (min-sum, normalized by alpha).
		for r, cols := range c.row2cols {
			msgs := make([]float64, len(cols))
			for i, col := range cols {
				msgs[i] = q[col][c.posInCol[col][r]]
			}
			sign := 1.0
			min1 := math.Inf(1)
			for _, v := range msgs {
				if v < 0 {
					sign = -sign
				}
				a := math.Abs(v)
				if a < min1 {
					min1 = a
				}
			}
			for i, v := range msgs {
				s := sign
				if v < 0 {
					s = -s
				}
				val := c.alpha * s * min1
				rmsg[r][i] = clipTo(val, c.clip)
			}
		}

		// Variable-to-check update and tentative hard decision.
		for col := 0; col < N; col++ {
			var sum float64
			for _, r := range c.col2rows[col] {
				sum += rmsg[r][c.posInRow[r][col]]
			}
			total := llr[col] + sum
			if total >= 0 {
				hard[col] = 0
			} else {
				hard[col] = 1
			}
			for i, r := range c.col2rows[col] {
				q[col][i] = clipTo(total-rmsg[r][c.posInRow[r][col]], c.clip)
			}
		}

		if c.syndromeOK(hard) {
			converged = true
			break
		}
	}
	if iters > maxIters {
		iters = maxIters
	}

	return DecodeResult{Bits: hard, Iters: iters, Converged: converged}, nil
}

func clipTo(v, clip float64) float64 {
	if v > clip {
		return clip
	}
	if v < -clip {
		return -clip
	}
	return v
}
