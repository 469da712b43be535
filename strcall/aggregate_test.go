package strcall

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/forensic/alleledb"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func trimmed(roi string, n, forward int, flanks [2]FlankQuality) []*Read {
	reads := make([]*Read, n)
	for i := range reads {
		reads[i] = &Read{ROI: roi, OriginalStrand: i < forward, State: Assigned, Flanks: flanks}
	}
	return reads
}

var cleanFlanks = [2]FlankQuality{FlankClean, FlankClean}

func TestFilterAbundance(t *testing.T) {
	counts := map[string]int{"A": 1, "B": 1, "C": 18}
	expect.EQ(t, filterAbundance(counts, 0.05, true), map[string]int{"C": 18})
	expect.EQ(t, filterAbundance(counts, 0.05, false), map[string]int{"C": 18})
	expect.EQ(t, filterAbundance(counts, 0.04, false), counts)

	// An abundance equal to the threshold is dropped in both modes.
	counts = map[string]int{"A": 1, "C": 19}
	expect.EQ(t, filterAbundance(counts, 0.05, true), map[string]int{"C": 19})
	expect.EQ(t, filterAbundance(counts, 0.05, false), map[string]int{"C": 19})

	// Many low counts no longer depress the abundance of a true minor allele.
	counts = map[string]int{"major": 100, "minor": 6}
	for i := 0; i < 50; i++ {
		counts[string(rune('a'+i%26))+string(rune('a'+i/26))] = 1
	}
	expect.EQ(t, filterAbundance(counts, 0.05, true), map[string]int{"major": 100, "minor": 6})
	expect.EQ(t, filterAbundance(counts, 0.05, false), map[string]int{"major": 100})

	// The top count is kept even when it fails on its own.
	counts = map[string]int{"A": 1, "B": 1, "C": 1}
	expect.EQ(t, filterAbundance(counts, 0.5, true), counts)
	expect.EQ(t, len(filterAbundance(counts, 0.5, false)), 0)

	expect.EQ(t, len(filterAbundance(map[string]int{}, 0.05, true)), 0)
}

func testReads() []*Read {
	var reads []*Read
	reads = append(reads, trimmed(refROI, 10, 6, cleanFlanks)...)
	reads = append(reads, trimmed("AGATAGAT", 9, 9, cleanFlanks)...)
	reads = append(reads, trimmed("AGATAGAT", 1, 1, [2]FlankQuality{FlankClean, FlankUnclean})...)
	reads = append(reads, trimmed("AGATAGATAGAC", 1, 0, cleanFlanks)...)
	reads = append(reads, trimmed(NegativeLength, 2, 2, cleanFlanks)...)
	return reads
}

func testTable(t *testing.T) *alleledb.Table {
	table := alleledb.NewTable()
	assert.NoError(t, table.Add(alleledb.Allele{Locus: "D1", Seq: refROI, Number: "3", Nomenclature: "[a]"}))
	assert.NoError(t, table.Add(alleledb.Allele{Locus: "D1", Seq: "", Number: "0", Nomenclature: "[a]"}))
	return table
}

func TestAggregateNilTable(t *testing.T) {
	var table *alleledb.Table
	rep, err := Aggregate(testLocus(), testReads(), table, DefaultOpts)
	assert.NoError(t, err)
	assert.EQ(t, len(rep.Candidates), 3)
	for _, c := range rep.Candidates {
		expect.False(t, c.Known.Found, c.ROI)
	}
}

func TestAggregate(t *testing.T) {
	opts := DefaultOpts
	rep, err := Aggregate(testLocus(), testReads(), testTable(t), opts)
	assert.NoError(t, err)
	expect.EQ(t, rep.Reads, 21)
	expect.EQ(t, rep.BadReads, 2)
	expect.EQ(t, rep.UniqueReads, 3)
	expect.EQ(t, rep.ReadsFiltered, 21)
	expect.Nil(t, rep.ClusterErr)
	assert.EQ(t, len(rep.Candidates), 3)

	c := rep.Candidates
	expect.EQ(t, c[0].ROI, "AGATAGAT")
	expect.EQ(t, c[0].Index, 1)
	expect.EQ(t, c[0].Count, 10)
	expect.EQ(t, c[0].Forward, 10)
	expect.EQ(t, c[0].Size, "2")
	expect.EQ(t, c[0].Known, Known{})
	expect.EQ(t, c[0].Flanks[FlankClean], 95.0)
	expect.EQ(t, c[0].Flanks[FlankUnclean], 5.0)
	expect.EQ(t, c[0].Direction(), 1.0)

	expect.EQ(t, c[1].ROI, "AGATAGATAGAC")
	expect.EQ(t, c[1].Size, "3")
	expect.EQ(t, c[1].Direction(), 0.0)

	expect.EQ(t, c[2].ROI, refROI)
	expect.EQ(t, c[2].Index, 3)
	expect.EQ(t, c[2].Abundance, 10.0/21)
	expect.EQ(t, c[2].Known, Known{Found: true, Number: "3", Nomenclature: "[a]"})
	expect.EQ(t, c[2].Direction(), 0.6)
	expect.EQ(t, c[2].Flanks[FlankClean], 100.0)

	sum := 0.0
	for _, cand := range c {
		sum += cand.Abundance
	}
	expect.True(t, sum > 0.999999 && sum < 1.000001)

	expect.EQ(t, c[0].Related, map[int][]int{1: {2, 3}})
	expect.EQ(t, c[1].Related, map[int][]int{1: {1, 3}})
	expect.EQ(t, c[2].Related, map[int][]int{1: {1, 2}})
}

func TestAggregateNegativeReads(t *testing.T) {
	opts := DefaultOpts
	opts.NegativeReadsFilter = false
	rep, err := Aggregate(testLocus(), testReads(), testTable(t), opts)
	assert.NoError(t, err)
	expect.EQ(t, rep.BadReads, 0)
	expect.EQ(t, rep.Reads, 23)
	assert.EQ(t, len(rep.Candidates), 4)
	expect.EQ(t, rep.Candidates[0].ROI, NegativeLength)
	expect.EQ(t, rep.Candidates[0].Size, "-1")
	expect.EQ(t, rep.Candidates[0].Known, Known{})
	expect.Nil(t, rep.Candidates[0].Related)

	// K-mer assignment forces the filter.
	opts.KmerAssign = 4
	rep, err = Aggregate(testLocus(), testReads(), testTable(t), opts)
	assert.NoError(t, err)
	expect.EQ(t, rep.BadReads, 2)
}

func TestAggregateReferenceLength(t *testing.T) {
	reads := trimmed(ReferenceLength, 5, 5, cleanFlanks)
	reads = append(reads, trimmed("AGAT", 5, 5, cleanFlanks)...)
	rep, err := Aggregate(testLocus(), reads, testTable(t), DefaultOpts)
	assert.NoError(t, err)
	assert.EQ(t, len(rep.Candidates), 2)
	expect.EQ(t, rep.Candidates[0].ROI, ReferenceLength)
	expect.EQ(t, rep.Candidates[0].Size, "0")
	expect.EQ(t, rep.Candidates[0].Known, Known{Found: true, Number: "0", Nomenclature: "[a]"})
	expect.Nil(t, rep.Candidates[0].Related)
	expect.EQ(t, rep.Candidates[1].Size, "1")
}

func TestAggregateClusterLimit(t *testing.T) {
	opts := DefaultOpts
	opts.MaxCluster = 2
	rep, err := Aggregate(testLocus(), testReads(), testTable(t), opts)
	assert.NoError(t, err)
	expect.EQ(t, len(rep.Candidates), 3)
	expect.True(t, rep.ClusterErr != nil)
	for _, c := range rep.Candidates {
		expect.Nil(t, c.Related)
	}

	opts = DefaultOpts
	opts.ClusterInfo = false
	rep, err = Aggregate(testLocus(), testReads(), testTable(t), opts)
	assert.NoError(t, err)
	expect.Nil(t, rep.ClusterErr)
	expect.Nil(t, rep.Candidates[0].Related)
}

func TestAggregateSNP(t *testing.T) {
	d := testLocus()
	d.RepeatUnit = 0
	table := alleledb.NewTable()
	assert.NoError(t, table.Add(alleledb.Allele{Locus: "D1", Seq: "A", Nomenclature: "rs1-A"}))
	reads := trimmed("A", 6, 3, cleanFlanks)
	reads = append(reads, trimmed("G", 4, 2, cleanFlanks)...)
	rep, err := Aggregate(d, reads, table, DefaultOpts)
	assert.NoError(t, err)
	assert.EQ(t, len(rep.Candidates), 2)
	expect.EQ(t, rep.Candidates[0].Size, "1")
	expect.EQ(t, rep.Candidates[0].Known, Known{Found: true, Nomenclature: "rs1-A"})
	expect.EQ(t, rep.Candidates[0].Related, map[int][]int{1: {2}})
}

type duplicateLookup struct{}

func (duplicateLookup) Find(locus, roi string) ([]alleledb.Allele, error) {
	return []alleledb.Allele{{Locus: locus, Seq: roi}, {Locus: locus, Seq: roi}}, nil
}

func TestAggregateDuplicateKnownAllele(t *testing.T) {
	_, err := Aggregate(testLocus(), testReads(), duplicateLookup{}, DefaultOpts)
	expect.True(t, errors.Is(errors.Integrity, err), err)
}
