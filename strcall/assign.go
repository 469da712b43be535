package strcall

import (
	"strings"

	"github.com/grailbio/forensic/dna"
	"github.com/grailbio/forensic/locus"
)

type orientation uint8

const (
	noMatch orientation = iota
	forwardMatch
	complementMatch
	conflictingMatch
)

// primerMatch classifies the primer occurrences of d in seq. A forward match
// has the forward primer and the complemented reverse primer exactly once
// each; a complement match has their reverse complements exactly once each.
// Any primer seen more than once, or more than two primer hits in total, is a
// conflict.
func primerMatch(seq string, d *locus.Descriptor) orientation {
	f := strings.Count(seq, d.ForwardPrimer)
	r := strings.Count(seq, d.ReverseOnForward())
	fc := strings.Count(seq, dna.ReverseComplement(d.ForwardPrimer))
	rc := strings.Count(seq, d.ReversePrimer)
	switch {
	case f+r+fc+rc > 2 || f > 1 || r > 1 || fc > 1 || rc > 1:
		return conflictingMatch
	case f == 1 && r == 1:
		return forwardMatch
	case fc == 1 && rc == 1:
		return complementMatch
	}
	return noMatch
}

// KmerSource selects the locus k-mers reads are scored against when their
// primers are not found.
type KmerSource int

const (
	// PrimerKmers scores reads against the k-mers of both primers.
	PrimerKmers KmerSource = iota
	// ReferenceKmers scores reads against the k-mers of the reference allele.
	ReferenceKmers
)

// Assign finds the locus of r among loci. A read matching one locus in one
// orientation is Assigned, and reverse-complemented if it came from the
// complementary strand. A read matching several loci, or one locus in a
// conflicting way, is Ambiguous. When kmer > 0, reads that matched nothing are
// scored against the k-mers of every locus chosen by src and assigned to the
// unique best locus and orientation.
func Assign(r *Read, loci []*locus.Descriptor, kmer int, src KmerSource) {
	var (
		match  *locus.Descriptor
		orient orientation
	)
	r.State = Unassigned
	for _, d := range loci {
		switch o := primerMatch(r.Seq, d); o {
		case noMatch:
		case conflictingMatch:
			r.State = Ambiguous
		default:
			if match != nil {
				r.State = Ambiguous
			}
			match, orient = d, o
		}
	}
	if r.State == Ambiguous {
		return
	}
	if match == nil {
		if kmer <= 0 {
			return
		}
		if match, orient = kmerMatch(r.Seq, loci, kmer, src); match == nil {
			r.State = Ambiguous
			return
		}
		r.KmerAssigned = true
	}
	r.State = Assigned
	r.Locus = match
	if orient == complementMatch {
		r.Seq = dna.ReverseComplement(r.Seq)
		r.Qual = dna.Reverse(r.Qual)
		r.OriginalStrand = false
	}
}

func kmerScore(set, read dna.KmerSet) int {
	return set.Intersect(read) - set.Missing(read)
}

// kmerMatch returns the locus and orientation with the single highest k-mer
// score. It returns nil when the best score is shared.
func kmerMatch(seq string, loci []*locus.Descriptor, k int, src KmerSource) (*locus.Descriptor, orientation) {
	read := dna.NewKmerSet(seq, k)
	var (
		best   *locus.Descriptor
		orient orientation
		max    int
		ties   int
	)
	for _, d := range loci {
		idx := d.Kmers(k)
		scores := [2]int{
			kmerScore(idx.Forward, read) + kmerScore(idx.Reverse, read),
			kmerScore(idx.ForwardComplement, read) + kmerScore(idx.ReverseComplement, read),
		}
		if src == ReferenceKmers {
			scores = [2]int{kmerScore(idx.Reference, read), kmerScore(idx.ReferenceComplement, read)}
		}
		for i, s := range scores {
			switch {
			case best == nil || s > max:
				best, max, ties = d, s, 1
				orient = forwardMatch
				if i == 1 {
					orient = complementMatch
				}
			case s == max:
				ties++
			}
		}
	}
	if ties != 1 {
		return nil, noMatch
	}
	return best, orient
}
