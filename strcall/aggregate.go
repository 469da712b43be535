package strcall

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/forensic/alleledb"
	"github.com/grailbio/forensic/locus"
)

// Known is the known-allele annotation of a candidate.
type Known struct {
	// Found is false when the sequence is not in the allele table.
	Found        bool
	Number       string
	Nomenclature string
}

// Candidate is one unique region of interest retained at a locus.
type Candidate struct {
	// Index is the 1-based rank of the candidate in report order. Related
	// refers to candidates by Index.
	Index int
	ROI   string
	// Count is the number of reads with this ROI; Forward counts those read
	// from the forward strand.
	Count, Forward int
	// Abundance is Count divided by the count of all retained candidates.
	Abundance float64
	// Size is "-1" for NegativeLength, the ROI length for SNP loci and the
	// allele number for STR loci.
	Size  string
	Known Known
	// Flanks holds, per FlankQuality, the percentage of flanks of this
	// candidate's reads trimmed with that quality.
	Flanks [numFlankQualities]float64
	// Related maps a difference count to the indexes of candidates that
	// align with that many differences.
	Related map[int][]int
}

// Direction returns the fraction of reads from the forward strand.
func (c Candidate) Direction() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.Forward) / float64(c.Count)
}

// LocusReport is the outcome of aggregating the reads of one locus.
type LocusReport struct {
	Locus *locus.Descriptor
	// Reads is the number of reads aggregated; BadReads were removed by the
	// negative-length filter before that.
	Reads, BadReads int
	// UniqueReads is the number of distinct ROIs, ReadsFiltered the number of
	// reads of the retained candidates.
	UniqueReads, ReadsFiltered int
	Candidates                 []Candidate
	// ClusterErr is set when clustering was skipped.
	ClusterErr error
	// Err is set when the locus could not be aggregated.
	Err error
}

type unique struct {
	count, forward int
	flanks         [numFlankQualities]int
}

// Aggregate reduces the trimmed reads of locus d to ranked allele candidates.
// Candidates come in report order: reserved ROIs first, then by length, then
// by sequence. A cluster size above opts.MaxCluster only sets ClusterErr; an
// allele table with several entries for one ROI fails the whole locus with
// an errors.Integrity error.
func Aggregate(d *locus.Descriptor, reads []*Read, known alleledb.Lookup, opts Opts) (*LocusReport, error) {
	rep := &LocusReport{Locus: d}
	hist := map[string]*unique{}
	for _, r := range reads {
		if opts.filterNegative() && r.ROI == NegativeLength {
			rep.BadReads++
			continue
		}
		rep.Reads++
		u := hist[r.ROI]
		if u == nil {
			u = &unique{}
			hist[r.ROI] = u
		}
		u.count++
		if r.OriginalStrand {
			u.forward++
		}
		for _, q := range r.Flanks {
			u.flanks[q]++
		}
	}
	rep.UniqueReads = len(hist)

	counts := make(map[string]int, len(hist))
	for roi, u := range hist {
		counts[roi] = u.count
	}
	retained := filterAbundance(counts, opts.Threshold, opts.ThresholdLoop)
	total := 0
	for _, n := range retained {
		total += n
	}
	rep.ReadsFiltered = total

	for roi, n := range retained {
		u := hist[roi]
		c := Candidate{
			ROI:       roi,
			Count:     n,
			Forward:   u.forward,
			Abundance: float64(n) / float64(total),
		}
		for q, m := range u.flanks {
			c.Flanks[q] = 100 * float64(m) / float64(2*n)
		}
		var err error
		if c.Size, err = alleleSize(d, roi); err != nil {
			return nil, err
		}
		if c.Known, err = lookupKnown(known, d.Name, roi); err != nil {
			return nil, err
		}
		rep.Candidates = append(rep.Candidates, c)
	}
	sortCandidates(rep.Candidates)
	for i := range rep.Candidates {
		rep.Candidates[i].Index = i + 1
	}
	if opts.ClusterInfo {
		if n := len(rep.Candidates); n > opts.MaxCluster {
			rep.ClusterErr = errors.E(errors.Precondition,
				fmt.Sprintf("locus %s: %d candidates exceed cluster limit %d", d.Name, n, opts.MaxCluster))
			log.Error.Printf("%v", rep.ClusterErr)
		} else {
			cluster(rep.Candidates, d.RepeatUnit, opts.MaxDifferences)
		}
	}
	return rep, nil
}

// filterAbundance returns the counts whose abundance exceeds threshold. In
// iterative mode the distinct counts are tried as cutoffs from the highest
// down; the abundance of the smallest retained count is computed over the
// retained reads only, and the last cutoff before that abundance drops to the
// threshold or below is used. If even the highest cutoff fails, it is kept.
func filterAbundance(counts map[string]int, threshold float64, loop bool) map[string]int {
	r := map[string]int{}
	if len(counts) == 0 {
		return r
	}
	if !loop {
		total := 0
		for _, n := range counts {
			total += n
		}
		for roi, n := range counts {
			if float64(n)/float64(total) > threshold {
				r[roi] = n
			}
		}
		return r
	}
	var distinct []int
	seen := map[int]bool{}
	for _, n := range counts {
		if !seen[n] {
			seen[n] = true
			distinct = append(distinct, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))
	cutoff := distinct[0]
	for i, c := range distinct {
		total := 0
		for _, n := range counts {
			if n >= c {
				total += n
			}
		}
		if float64(c)/float64(total) <= threshold {
			if i > 0 {
				cutoff = distinct[i-1]
			}
			break
		}
		cutoff = c
	}
	for roi, n := range counts {
		if n >= cutoff {
			r[roi] = n
		}
	}
	return r
}

func alleleSize(d *locus.Descriptor, roi string) (string, error) {
	seqLen := len(roi)
	switch roi {
	case NegativeLength:
		return "-1", nil
	case ReferenceLength:
		seqLen = 0
	}
	if !d.IsSTR() {
		return strconv.Itoa(seqLen), nil
	}
	return d.AlleleNumber(seqLen)
}

func lookupKnown(known alleledb.Lookup, name, roi string) (Known, error) {
	if known == nil || roi == NegativeLength {
		return Known{}, nil
	}
	if roi == ReferenceLength {
		roi = ""
	}
	alleles, err := known.Find(name, roi)
	if err != nil {
		return Known{}, err
	}
	switch len(alleles) {
	case 0:
		return Known{}, nil
	case 1:
		return Known{Found: true, Number: alleles[0].Number, Nomenclature: alleles[0].Nomenclature}, nil
	}
	return Known{}, errors.E(errors.Integrity,
		fmt.Sprintf("locus %s: %d known alleles for sequence %q", name, len(alleles), roi))
}

func sortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		a, b := c[i].ROI, c[j].ROI
		if ma, mb := IsMarker(a), IsMarker(b); ma != mb {
			return ma
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}
