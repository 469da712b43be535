package dna

import farm "github.com/dgryski/go-farm"

// KmerSet is the set of distinct length-k substrings of a sequence. Members are
// keyed by their farmhash fingerprint.
type KmerSet struct {
	k     int
	kmers map[uint64]struct{}
}

func kmerKey(kmer string) uint64 {
	return farm.Fingerprint64([]byte(kmer))
}

// NewKmerSet builds the k-mer set of seq. A sequence shorter than k yields an
// empty set. k must be positive.
func NewKmerSet(seq string, k int) KmerSet {
	if k <= 0 {
		panic(k)
	}
	s := KmerSet{k: k, kmers: map[uint64]struct{}{}}
	for i := 0; i+k <= len(seq); i++ {
		s.kmers[kmerKey(seq[i:i+k])] = struct{}{}
	}
	return s
}

// K returns the k-mer length.
func (s KmerSet) K() int { return s.k }

// Len returns the number of distinct k-mers.
func (s KmerSet) Len() int { return len(s.kmers) }

// Contains reports whether kmer is a member.
func (s KmerSet) Contains(kmer string) bool {
	_, ok := s.kmers[kmerKey(kmer)]
	return ok
}

// Intersect returns the number of k-mers present in both sets.
func (s KmerSet) Intersect(o KmerSet) int {
	a, b := s.kmers, o.kmers
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// Missing returns the number of k-mers of s that are absent from o.
func (s KmerSet) Missing(o KmerSet) int {
	return len(s.kmers) - s.Intersect(o)
}
