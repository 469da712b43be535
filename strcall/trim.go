package strcall

import (
	"fmt"
	"math"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/forensic/align"
	"github.com/grailbio/forensic/dna"
	"github.com/grailbio/forensic/locus"
)

// Trim extracts the region of interest of an assigned read: it cuts the
// primers and everything outside them, then the flanks. When the ends
// overlap, ROI is NegativeLength and Conflict says why; an empty region is
// ReferenceLength.
//
// Trim returns an error only when the read cannot be trimmed at all, e.g. a
// primer longer than the read. Callers demote such reads to Unassigned.
func Trim(r *Read, opts Opts) error {
	if r.State != Assigned {
		return errors.E(errors.Precondition, fmt.Sprintf("trim %s: read is %v", r.Name, r.State))
	}
	if len(r.Qual) != len(r.Seq) {
		return errors.E(errors.Invalid, fmt.Sprintf("trim %s: %d bases but %d qualities", r.Name, len(r.Seq), len(r.Qual)))
	}
	d := r.Locus
	start, end, err := primerOut(r.Seq, d)
	if err != nil {
		return errors.E(fmt.Sprintf("trim %s: locus %s", r.Name, d.Name), err)
	}
	r.PrimerOut = true
	if start > end {
		r.negative(errors.E(errors.Precondition, "negative length after primer out"))
		return nil
	}
	seq, qual := r.Seq[start:end], r.Qual[start:end]

	fwd, qf, err := flankBoundary(seq, d.ForwardFlank, opts.UseCompress, opts.WithAlignment)
	if err != nil {
		r.negative(errors.E("forward flank", err))
		return nil
	}
	rev, qr, err := flankBoundary(dna.ReverseComplement(seq), d.ReverseFlank, opts.UseCompress, opts.WithAlignment)
	if err != nil {
		r.negative(errors.E("reverse flank", err))
		return nil
	}
	r.Flanks = [2]FlankQuality{qf, qr}
	end = len(seq) - rev
	if fwd > end {
		r.negative(errors.E(errors.Precondition, "negative length after flanking out"))
		return nil
	}
	r.ROI, r.ROIQual = seq[fwd:end], qual[fwd:end]
	if r.ROI == "" {
		r.ROI = ReferenceLength
	}
	return nil
}

func (r *Read) negative(err error) {
	r.ROI, r.ROIQual = NegativeLength, ""
	r.Conflict = err
}

// primerOut returns the read span between the primers: after the last exact
// forward primer and before the first exact complemented reverse primer. A
// primer that is not found exactly is placed by PrimerSearch; the reverse
// primer is searched from the read end by reversing both sequences.
func primerOut(seq string, d *locus.Descriptor) (start, end int, err error) {
	if i := strings.LastIndex(seq, d.ForwardPrimer); i >= 0 {
		start = i + len(d.ForwardPrimer)
	} else {
		res, err := align.PrimerSearch{}.Align(d.ForwardPrimer, seq)
		if err != nil {
			return 0, 0, err
		}
		start = res.End
	}
	reverse := d.ReverseOnForward()
	if i := strings.Index(seq, reverse); i >= 0 {
		end = i
	} else {
		res, err := align.PrimerSearch{}.Align(dna.Reverse(reverse), dna.Reverse(seq))
		if err != nil {
			return 0, 0, err
		}
		end = len(seq) - res.End
	}
	return start, end, nil
}

// flankBoundary returns the number of leading bases of seq covered by flank,
// and how that number was found. The reverse flank is handled by passing the
// reverse complement of the read.
func flankBoundary(seq, flank string, useCompress, withAlignment bool) (int, FlankQuality, error) {
	if flank == "" {
		return 0, FlankNone, nil
	}
	if strings.HasPrefix(seq, flank) {
		return len(flank), FlankClean, nil
	}
	if !useCompress {
		n, err := uncleanBoundary(seq, flank, withAlignment)
		return n, FlankUnclean, err
	}
	// Bases of the flank's last homopolymer run beyond the first.
	hpl := dna.TrailingRunLength(flank) - 1
	cseq, cflank := dna.Compress(seq), dna.Compress(flank)
	if strings.HasPrefix(cseq, cflank) {
		if w := dna.CompressedPrefixLen(seq, cflank, len(cflank)); w >= 0 {
			return w + hpl, FlankCleanCompressed, nil
		}
	}
	n, err := uncleanBoundary(cseq, cflank, withAlignment)
	if err != nil {
		return 0, FlankUnclean, err
	}
	if n > len(cseq) {
		return 0, FlankUnclean, errors.E(errors.Precondition, fmt.Sprintf("flank boundary %d past read end", n))
	}
	w := dna.CompressedPrefixLen(seq, cseq[:n], n)
	if w < 0 {
		return 0, FlankUnclean, errors.E(errors.Precondition, fmt.Sprintf("cannot expand compressed flank boundary %d", n))
	}
	return w + hpl, FlankUnclean, nil
}

func uncleanBoundary(seq, flank string, withAlignment bool) (int, error) {
	if withAlignment {
		if n := alignedBoundary(seq, flank); n > 0 {
			return n, nil
		}
	}
	return kmerBoundary(seq, flank)
}

// alignedBoundary places the flank with a FlankIndex alignment against the
// first len(flank)+10 read bases. When the flank seems to end within the last
// bases of that window the full read is used instead.
func alignedBoundary(seq, flank string) int {
	window := seq
	if n := len(flank) + 10; len(window) > n {
		window = window[:n]
	}
	res, _ := align.FlankIndex{}.Align(flank, window)
	if res.End-1 > len(flank)+5 && len(window) < len(seq) {
		res, _ = align.FlankIndex{}.Align(flank, seq)
	}
	return res.End
}

// kmerBoundary votes for the position of the last flank base in seq. Every
// substring flank[j:i] that occurs in seq votes for the occurrence closest to
// where it sits in the flank, shifted to the flank end. Longer substrings
// ending nearer the flank end carry more weight, sqrt(outer*inner) where
// outer and inner count the steps from the flank end and from i. Ties go to
// the position voted for first.
func kmerBoundary(seq, flank string) (int, error) {
	type vote struct{ pos, score int }
	var (
		votes []vote
		index = map[int]int{}
	)
	for outer, i := 0, len(flank); i > 0; outer, i = outer+1, i-1 {
		target := i - 1
		for inner, j := 0, i-1; j >= 0; inner, j = inner+1, j-1 {
			w := flank[j:i]
			parts := strings.Split(seq, w)
			if len(parts) == 1 {
				break
			}
			closest := -1
			for _, p := range parts {
				step := len(p) + len(w)
				if abs(closest+step-target) > abs(closest-target) {
					break
				}
				closest += step
			}
			pos := closest + len(flank) - i
			k, ok := index[pos]
			if !ok {
				k = len(votes)
				index[pos] = k
				votes = append(votes, vote{pos: pos})
			}
			votes[k].score += int(math.Sqrt(float64(outer * inner)))
		}
	}
	if len(votes) == 0 {
		return 0, errors.E(errors.Precondition, "no flank k-mer found in read")
	}
	best := votes[0]
	for _, v := range votes[1:] {
		if v.score > best.score {
			best = v
		}
	}
	if best.pos < -1 {
		return 0, errors.E(errors.Precondition, fmt.Sprintf("flank boundary %d before read start", best.pos+1))
	}
	return best.pos + 1, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
