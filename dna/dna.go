// Package dna holds small sequence helpers shared by the aligner, the locus
// tables and the read trimmer.
package dna

import "strings"

var complementTable [256]byte

func init() {
	for i := range complementTable {
		complementTable[i] = byte(i)
	}
	for _, p := range []string{"AT", "CG", "at", "cg"} {
		complementTable[p[0]] = p[1]
		complementTable[p[1]] = p[0]
	}
}

// ReverseComplement returns the reverse complement of seq. A, C, G and T are
// complemented in either case; every other byte, N included, is kept as is.
func ReverseComplement(seq string) string {
	n := len(seq)
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[n-1-i] = complementTable[seq[i]]
	}
	return string(b)
}

// Reverse returns seq reversed byte by byte. It is used for quality strings
// and for searching a primer from the 3' end.
func Reverse(seq string) string {
	n := len(seq)
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[n-1-i] = seq[i]
	}
	return string(b)
}

// Compress collapses every homopolymer run in seq into a single base, e.g.
// "AAACCGTTT" becomes "ACGT".
func Compress(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	var b strings.Builder
	b.Grow(len(seq))
	b.WriteByte(seq[0])
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[i-1] {
			b.WriteByte(seq[i])
		}
	}
	return b.String()
}

// TrailingRunLength returns the length of the homopolymer run that ends seq.
// It returns 0 for an empty sequence.
func TrailingRunLength(seq string) int {
	n := len(seq)
	if n == 0 {
		return 0
	}
	i := n - 1
	for i > 0 && seq[i-1] == seq[n-1] {
		i--
	}
	return n - i
}

// CompressedPrefixLen returns the smallest w >= from such that
// Compress(seq[:w]) == compressed, or -1 if there is none. The returned prefix
// ends on the first base of the last run of compressed.
func CompressedPrefixLen(seq, compressed string, from int) int {
	if from < 0 {
		from = 0
	}
	for w := from; w <= len(seq); w++ {
		c := Compress(seq[:w])
		if c == compressed {
			return w
		}
		if len(c) > len(compressed) {
			break
		}
	}
	return -1
}
