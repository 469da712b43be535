package align

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Global aligns a against b end to end. Leading gaps on either margin pay the
// cumulative single-gap cost.
type Global struct {
	// Unit is the repeat-unit size for stutter gaps. Zero disables them.
	Unit      int
	Penalties Penalties
}

// Align implements Aligner. It never fails.
func (g Global) Align(a, b string) (Result, error) {
	p := g.Penalties.orDefault()
	m := newMatrix(a, b)
	for i := 1; i <= len(a); i++ {
		m.set(i, 0, float64(i)*p.Gap, crumbDel)
	}
	for j := 1; j <= len(b); j++ {
		m.set(0, j, float64(j)*p.Gap, crumbIns)
	}
	m.fill(g.Unit, p, unitWeight)
	return Result{
		Pairs: m.traceback(len(a), len(b), g.Unit),
		Score: m.get(len(a), len(b)),
		End:   len(b),
		Unit:  g.Unit,
	}, nil
}

// PrimerSearch finds the best placement of a primer a inside a longer read b.
// Leading gaps are free. The alignment ends at the rightmost best-scoring cell
// of the last row, so Result.End is the read offset just past the primer.
type PrimerSearch struct {
	Penalties Penalties
}

// Align implements Aligner. It returns an errors.Integrity error when the
// primer is longer than the read.
func (s PrimerSearch) Align(a, b string) (Result, error) {
	if len(a) > len(b) {
		return Result{}, errors.E(errors.Integrity,
			fmt.Sprintf("primer search: primer length %d exceeds read length %d", len(a), len(b)))
	}
	p := s.Penalties.orDefault()
	m := newMatrix(a, b)
	for i := 1; i <= len(a); i++ {
		m.set(i, 0, 0, crumbDel)
	}
	for j := 1; j <= len(b); j++ {
		m.set(0, j, 0, crumbIns)
	}
	m.fill(0, p, unitWeight)
	last, end := len(a), len(b)
	for j := len(b) - 1; j >= 0; j-- {
		if m.get(last, j) > m.get(last, end) {
			end = j
		}
	}
	return Result{
		Pairs: m.traceback(last, end, 0),
		Score: m.get(last, end),
		End:   end,
	}, nil
}

// FlankIndex estimates how many bases of read b are covered by flank a when the
// flank is anchored at the start of the read. Scores and gap costs at flank
// position i are scaled by sqrt(min(i, 10)), so disagreement near the end of
// the flank weighs more than at its start. Only Result.End and Result.Score
// are set.
type FlankIndex struct {
	Penalties Penalties
}

// Align implements Aligner. It never fails.
func (f FlankIndex) Align(a, b string) (Result, error) {
	p := f.Penalties.orDefault()
	m := newMatrix(a, b)
	for i := 1; i <= len(a); i++ {
		m.set(i, 0, float64(int(float64(i)*flankWeight(i)*p.Gap)), crumbDel)
	}
	for j := 1; j <= len(b); j++ {
		m.set(0, j, 0, crumbIns)
	}
	m.fill(0, p, flankWeight)
	last, end := len(a), 0
	for j := 1; j <= len(b); j++ {
		if m.get(last, j) > m.get(last, end) {
			end = j
		}
	}
	return Result{Score: m.get(last, end), End: end}, nil
}
