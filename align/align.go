// Package align implements the dynamic-programming aligner used to locate
// primers and flanks in reads and to measure the distance between candidate
// alleles.
//
// Three strategies share one scoring scheme and one fill routine:
//
//   Global        Needleman-Wunsch alignment with optional repeat-unit
//                 ("stutter") gaps.
//   PrimerSearch  free leading gaps on both margins; the alignment ends at the
//                 best cell of the last row. Used to find a primer inside a
//                 read.
//   FlankIndex    position-weighted semi-global fill that only reports where
//                 the flank most likely ends in the read.
//
// Bases are A, C, G, T and N (either case). A match scores +10, a mismatch
// -1, and any pair involving N (or any other byte) scores 0.
package align

import (
	"bytes"
	"math"
)

// Gap is the placeholder symbol for a gap in an aligned pair.
const Gap = '-'

const (
	matchScore    = 10
	mismatchScore = -1
)

// Penalties holds the gap costs. Both values are negative.
type Penalties struct {
	// Gap is the cost of a single-base gap.
	Gap float64
	// Stutter is the cost of one gap spanning exactly one repeat unit.
	Stutter float64
}

// DefaultPenalties replace the zero fields of a strategy's Penalties.
var DefaultPenalties = Penalties{Gap: -5, Stutter: -10}

func (p Penalties) orDefault() Penalties {
	if p.Gap == 0 {
		p.Gap = DefaultPenalties.Gap
	}
	if p.Stutter == 0 {
		p.Stutter = DefaultPenalties.Stutter
	}
	return p
}

// Pair is one column of an alignment. Either side may be Gap, never both.
type Pair struct {
	A, B byte
}

// Result is the outcome of an alignment of sequence a against sequence b.
type Result struct {
	// Pairs lists the aligned columns in order. FlankIndex leaves it empty.
	Pairs []Pair
	// Score is the value of the cell the traceback started from.
	Score float64
	// End is the number of bases of b consumed by the alignment.
	End int
	// Unit is the stutter unit the alignment was computed with, 0 if stutter
	// gaps were disabled.
	Unit int
}

// Aligner is implemented by each alignment strategy.
type Aligner interface {
	Align(a, b string) (Result, error)
}

// Rows returns the two gapped rows of the alignment.
func (r Result) Rows() (string, string) {
	var a, b bytes.Buffer
	for _, p := range r.Pairs {
		a.WriteByte(p.A)
		b.WriteByte(p.B)
	}
	return a.String(), b.String()
}

// Differences returns the number of differences in the alignment. Without
// stutter every column with unequal symbols counts once. With a stutter unit
// u, a run of L gap symbols in either row counts L/u + L%u, so a gap of
// exactly one repeat unit is a single difference.
func (r Result) Differences() int {
	if r.Unit <= 0 {
		n := 0
		for _, p := range r.Pairs {
			if p.A != p.B {
				n++
			}
		}
		return n
	}
	n := 0
	for _, p := range r.Pairs {
		if p.A != Gap && p.B != Gap && p.A != p.B {
			n++
		}
	}
	runA, runB := 0, 0
	flush := func(run int) int { return run/r.Unit + run%r.Unit }
	for _, p := range r.Pairs {
		if p.A == Gap {
			runA++
		} else {
			n += flush(runA)
			runA = 0
		}
		if p.B == Gap {
			runB++
		} else {
			n += flush(runB)
			runB = 0
		}
	}
	return n + flush(runA) + flush(runB)
}

var baseIndex [256]int8

func init() {
	for i := range baseIndex {
		baseIndex[i] = -1
	}
	for i, c := range "ACGT" {
		baseIndex[c] = int8(i)
		baseIndex[c+'a'-'A'] = int8(i)
	}
}

func similarity(x, y byte) float64 {
	xi, yi := baseIndex[x], baseIndex[y]
	switch {
	case xi < 0 || yi < 0:
		return 0
	case xi == yi:
		return matchScore
	default:
		return mismatchScore
	}
}

// flankWeight is the FlankIndex scaling factor for flank position i (1-based).
func flankWeight(i int) float64 {
	if i > 10 {
		return math.Sqrt(10)
	}
	return math.Sqrt(float64(i))
}
