package align

import (
	"math/rand"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func mustAlign(t *testing.T, a Aligner, x, y string) Result {
	r, err := a.Align(x, y)
	assert.NoError(t, err)
	return r
}

func TestGlobalIdentical(t *testing.T) {
	r := mustAlign(t, Global{}, "ACGT", "ACGT")
	expect.EQ(t, r.Score, 40.0)
	expect.EQ(t, r.Differences(), 0)
	a, b := r.Rows()
	expect.EQ(t, a, "ACGT")
	expect.EQ(t, b, "ACGT")
}

func TestGlobalMismatch(t *testing.T) {
	r := mustAlign(t, Global{}, "ACGT", "ACCT")
	expect.EQ(t, r.Score, 29.0)
	expect.EQ(t, r.Differences(), 1)
}

func TestGlobalStutter(t *testing.T) {
	r := mustAlign(t, Global{Unit: 4}, "ACGTACGT", "ACGT")
	expect.EQ(t, r.Score, 30.0)
	expect.EQ(t, r.Differences(), 1)
	_, b := r.Rows()
	expect.EQ(t, len(b), 8)

	// The same pair without stutter gaps pays four single gaps.
	r = mustAlign(t, Global{}, "ACGTACGT", "ACGT")
	expect.EQ(t, r.Score, 20.0)
	expect.EQ(t, r.Differences(), 4)
}

func TestGlobalStutterInsertion(t *testing.T) {
	r := mustAlign(t, Global{Unit: 2}, "CACA", "CACACA")
	expect.EQ(t, r.Score, 30.0)
	expect.EQ(t, r.Differences(), 1)
}

func TestGlobalPenalties(t *testing.T) {
	r := mustAlign(t, Global{Penalties: Penalties{Gap: -1, Stutter: -2}}, "ACGTACGT", "ACGT")
	expect.EQ(t, r.Score, 36.0)

	// Unset penalties keep their defaults.
	r = mustAlign(t, Global{Unit: 4, Penalties: Penalties{Gap: -3}}, "ACGTACGT", "ACGT")
	expect.EQ(t, r.Score, 30.0)
	r = mustAlign(t, Global{Penalties: Penalties{Stutter: -2}}, "ACGTACGT", "ACGT")
	expect.EQ(t, r.Score, 20.0)
}

func TestGlobalEmpty(t *testing.T) {
	r := mustAlign(t, Global{}, "", "AC")
	expect.EQ(t, r.Pairs, []Pair{{Gap, 'A'}, {Gap, 'C'}})
	expect.EQ(t, r.Score, -10.0)
	expect.EQ(t, r.Differences(), 2)

	r = mustAlign(t, Global{Unit: 3}, "", "")
	expect.EQ(t, len(r.Pairs), 0)
	expect.EQ(t, r.Score, 0.0)
	expect.EQ(t, r.Differences(), 0)
}

func TestNScoresZero(t *testing.T) {
	r := mustAlign(t, Global{}, "ANGT", "ACGT")
	expect.EQ(t, r.Score, 30.0)
	// N against C is still a differing column.
	expect.EQ(t, r.Differences(), 1)
	r = mustAlign(t, Global{}, "acgt", "ACGT")
	expect.EQ(t, r.Score, 40.0)
}

func TestDifferencesGapRuns(t *testing.T) {
	r := Result{
		Unit: 2,
		Pairs: []Pair{
			{'A', 'A'}, {'C', Gap}, {'A', Gap}, {'C', Gap}, {'G', 'G'},
			{Gap, 'T'}, {'T', 'A'},
		},
	}
	// One run of 3 gaps (1 stutter + 1), one single gap, one mismatch.
	expect.EQ(t, r.Differences(), 4)
	r.Unit = 0
	expect.EQ(t, r.Differences(), 5)
}

func randomSeq(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}

func TestPointMutationIsHamming(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for iter := 0; iter < 200; iter++ {
		a := randomSeq(r, 1+r.Intn(40))
		b := []byte(a)
		pos := r.Intn(len(b))
		for b[pos] == a[pos] {
			b[pos] = "ACGT"[r.Intn(4)]
		}
		res := mustAlign(t, Global{}, a, string(b))
		expect.EQ(t, res.Differences(), 1, "a=%s b=%s", a, string(b))
	}
}

func TestStutterNeverWorse(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 100; iter++ {
		unit := 2 + r.Intn(3)
		ref := randomSeq(r, unit*(2+r.Intn(8)))
		pos := r.Intn(len(ref)/unit) * unit
		del := ref[:pos] + ref[pos+unit:]

		plain := mustAlign(t, Global{}, ref, del)
		stutter := mustAlign(t, Global{Unit: unit}, ref, del)
		expect.GE(t, stutter.Score, plain.Score, "ref=%s del=%s", ref, del)
		expect.LE(t, stutter.Differences(), plain.Differences(), "ref=%s del=%s", ref, del)
		if unit > 2 {
			// Two single gaps cost as much as a 2-base stutter and may be placed
			// apart, so only longer units pin the count.
			expect.EQ(t, stutter.Differences(), 1, "ref=%s del=%s", ref, del)
		}
	}
}

func TestPrimerSearch(t *testing.T) {
	r := mustAlign(t, PrimerSearch{}, "GATC", "TTTGATCAAA")
	expect.EQ(t, r.End, 7)
	expect.EQ(t, r.Score, 40.0)
	a, b := r.Rows()
	expect.EQ(t, a, "---GATC")
	expect.EQ(t, b, "TTTGATC")

	// One mismatch inside the primer still locates it.
	r = mustAlign(t, PrimerSearch{}, "GATC", "TTTGTTCAAA")
	expect.EQ(t, r.End, 7)

	// Equal lengths are accepted.
	r = mustAlign(t, PrimerSearch{}, "ACGT", "ACGT")
	expect.EQ(t, r.End, 4)
}

func TestPrimerSearchTooLong(t *testing.T) {
	_, err := PrimerSearch{}.Align("ACGTACGT", "ACG")
	expect.True(t, errors.Is(errors.Integrity, err))
}

func TestFlankIndex(t *testing.T) {
	r := mustAlign(t, FlankIndex{}, "ACGTAC", "ACGTACTTTT")
	expect.EQ(t, r.End, 6)
	expect.Nil(t, r.Pairs)

	// A mismatch near the start of the flank does not move the boundary.
	r = mustAlign(t, FlankIndex{}, "ACGTAC", "TCGTACTTTT")
	expect.EQ(t, r.End, 6)

	// A base missing from the read shifts the end by one.
	r = mustAlign(t, FlankIndex{}, "ACGGTCAGTC", "ACGGTCGTCTTTTTT")
	expect.EQ(t, r.End, 9)

	r = mustAlign(t, FlankIndex{}, "", "ACGT")
	expect.EQ(t, r.End, 0)
}
