package alleledb

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/forensic/dna"
	"github.com/grailbio/forensic/locus"
)

// Validated is an allele sequence supplied for reference derivation. Seq
// includes both primers and may extend beyond them, on either strand.
// Validation is the allele name ("13", "9.3", "X"); it may be empty for
// sequences known to be alleles without a name.
type Validated struct {
	Locus      string
	Validation string
	Seq        string
}

// conflict reports locus reference data that cannot be reconciled. Such a
// locus is skipped; other loci are unaffected.
func conflict(name, msg string) error {
	return errors.E(errors.Precondition, fmt.Sprintf("locus %s: %s", name, msg))
}

type primerPair struct {
	forward string
	// reverse is the reverse primer on the forward strand.
	reverse string
}

func (p primerPair) in(seq string) bool {
	return strings.Contains(seq, p.forward) && strings.Contains(seq, p.reverse)
}

func (p primerPair) complement() primerPair {
	return primerPair{dna.ReverseComplement(p.forward), dna.ReverseComplement(p.reverse)}
}

// Derive builds the descriptor and known alleles of one locus from its primer
// sets and validated alleles:
//
//   - only primer sets found in every allele, on either strand, are kept;
//   - the reference is the first allele with a non-empty validation;
//   - among the kept sets, the one spanning the widest range on the reference
//     is chosen, and all alleles are oriented along it;
//   - the flanks are the longest prefixes (and suffixes) shared by all
//     alleles between the primers, shortened so they never overlap;
//   - every allele is reduced to its region of interest and numbered.
//
// Reference data that cannot be reconciled yields an errors.Precondition
// error. Alleles sharing a region of interest are kept once; more than 26
// alleles with the same number yield errors.Integrity.
func Derive(sets []locus.PrimerSet, alleles []Validated) (*locus.Descriptor, []Allele, error) {
	if len(sets) == 0 {
		return nil, nil, errors.E(errors.Invalid, "derive: no primer sets")
	}
	name, unit := sets[0].Locus, sets[0].RepeatUnit
	var pairs []primerPair
	for _, s := range sets {
		p := primerPair{s.Forward, dna.ReverseComplement(s.Reverse)}
		covers := true
		for _, a := range alleles {
			if !p.in(a.Seq) && !p.complement().in(a.Seq) {
				covers = false
				break
			}
		}
		if covers {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		return nil, nil, conflict(name, "no primer set covers all locus alleles")
	}
	var ref *Validated
	for i := range alleles {
		if alleles[i].Validation != "" {
			ref = &alleles[i]
			break
		}
	}
	if ref == nil {
		return nil, nil, conflict(name, "no validated allele with full annotation")
	}

	best, bestSpan := primerPair{}, -1
	for _, p := range pairs {
		seq := ref.Seq
		if !strings.Contains(seq, p.forward) {
			seq = dna.ReverseComplement(seq)
		}
		span := strings.Index(seq, p.reverse) + len(p.reverse) - strings.Index(seq, p.forward)
		if span > bestSpan {
			best, bestSpan = p, span
		}
	}
	oriented := make([]string, len(alleles))
	for i, a := range alleles {
		oriented[i] = a.Seq
		if !strings.Contains(a.Seq, best.forward) {
			oriented[i] = dna.ReverseComplement(a.Seq)
		}
	}
	refSeq := ref.Seq
	if !strings.Contains(refSeq, best.forward) {
		refSeq = dna.ReverseComplement(refSeq)
	}
	refNumber := ref.Validation
	if unit > 0 {
		if i := strings.Index(refNumber, ":R"); i >= 0 {
			refNumber = refNumber[:i]
		}
	}

	forwardFlank, reverseFlank, err := deriveFlanks(name, oriented, best)
	if err != nil {
		return nil, nil, err
	}
	d := &locus.Descriptor{
		Name:            name,
		RepeatUnit:      unit,
		ForwardPrimer:   best.forward,
		ReversePrimer:   dna.ReverseComplement(best.reverse),
		ForwardFlank:    forwardFlank,
		ReverseFlank:    reverseFlank,
		RefSeq:          refSeq,
		RefAlleleNumber: refNumber,
	}
	refROI, err := RegionOfInterest(d, refSeq)
	if err != nil {
		return nil, nil, err
	}
	d.RefLength = len(refROI)

	var (
		known     []Allele
		seen      = map[string]bool{}
		perNumber = map[string]int{}
	)
	for _, a := range alleles {
		roi, err := RegionOfInterest(d, a.Seq)
		if err != nil {
			return nil, nil, err
		}
		if seen[roi] {
			continue
		}
		seen[roi] = true
		allele := Allele{Locus: name, Seq: roi}
		if d.IsSTR() {
			if allele.Number, err = d.AlleleNumber(len(roi)); err != nil {
				return nil, nil, err
			}
			perNumber[allele.Number]++
			if perNumber[allele.Number] > 26 {
				return nil, nil, errors.E(errors.Integrity,
					fmt.Sprintf("locus %s: more than 26 alleles numbered %s", name, allele.Number))
			}
			allele.Nomenclature = fmt.Sprintf("[%c]", 'a'+perNumber[allele.Number]-1)
		} else {
			allele.Nomenclature = a.Validation
		}
		known = append(known, allele)
	}
	return d, known, nil
}

// deriveFlanks finds the flanks shared by all oriented alleles between the
// primers p.
func deriveFlanks(name string, alleles []string, p primerPair) (string, string, error) {
	var inner []string
	for _, seq := range alleles {
		if strings.Count(seq, p.forward) != 1 || strings.Count(seq, p.reverse) != 1 {
			seq = dna.ReverseComplement(seq)
			if strings.Count(seq, p.forward) != 1 || strings.Count(seq, p.reverse) != 1 {
				return "", "", conflict(name, "conflicting primers in allele")
			}
		}
		start, end := strings.Index(seq, p.forward)+len(p.forward), strings.Index(seq, p.reverse)
		if end < start {
			return "", "", conflict(name, "primers overlap in allele")
		}
		inner = append(inner, seq[start:end])
	}
	if len(inner) == 0 {
		return "", "", nil
	}
	maxOneWay := len(inner[0])
	for _, s := range inner {
		if len(s) < maxOneWay {
			maxOneWay = len(s)
		}
	}
	maxOverlap := maxOneWay / 2
	complemented := make([]string, len(inner))
	for i, s := range inner {
		complemented[i] = dna.ReverseComplement(s)
	}
	forward := inner[0][:commonPrefixLen(inner, maxOneWay)]
	reverse := complemented[0][:commonPrefixLen(complemented, maxOneWay)]
	if len(forward)+len(reverse) > maxOneWay {
		switch {
		case len(forward) <= maxOverlap+maxOneWay%2:
			reverse = reverse[:maxOneWay-len(forward)]
		case len(reverse) <= maxOverlap:
			forward = forward[:maxOneWay-len(reverse)]
		default:
			forward = forward[:maxOverlap+maxOneWay%2]
			reverse = reverse[:maxOverlap]
		}
	}
	return forward, reverse, nil
}

func commonPrefixLen(seqs []string, max int) int {
	n := 0
	for ; n < max; n++ {
		c := seqs[0][n]
		for _, s := range seqs[1:] {
			if s[n] != c {
				return n
			}
		}
	}
	return n
}

// RegionOfInterest reduces an allele sequence, primers included, to the part
// between the flanks of d. The allele may be on either strand.
func RegionOfInterest(d *locus.Descriptor, seq string) (string, error) {
	reverse := d.ReverseOnForward()
	if strings.Contains(seq, dna.ReverseComplement(d.ForwardPrimer)) && strings.Contains(seq, d.ReversePrimer) {
		seq = dna.ReverseComplement(seq)
	}
	if !strings.Contains(seq, d.ForwardPrimer) || !strings.Contains(seq, reverse) {
		return "", conflict(d.Name, "reference primers not in allele")
	}
	start, end := strings.Index(seq, d.ForwardPrimer)+len(d.ForwardPrimer), strings.Index(seq, reverse)
	if end < start {
		return "", conflict(d.Name, "primers overlap in allele")
	}
	seq = seq[start:end]
	if !strings.Contains(seq, d.ForwardFlank) || !strings.Contains(seq, dna.ReverseComplement(d.ReverseFlank)) {
		return "", conflict(d.Name, "flanks not in allele")
	}
	if len(d.ForwardFlank)+len(d.ReverseFlank) > len(seq) {
		return "", conflict(d.Name, "flanks overlap in allele")
	}
	return seq[len(d.ForwardFlank) : len(seq)-len(d.ReverseFlank)], nil
}

// Synthetic returns a placeholder allele made of the primers only. It stands
// in for validated alleles when none are available, which makes the whole
// primer-to-primer region the region of interest.
func Synthetic(s locus.PrimerSet) Validated {
	v := Validated{Locus: s.Locus, Validation: "0", Seq: s.Forward + dna.ReverseComplement(s.Reverse)}
	if s.RepeatUnit == 0 {
		v.Validation = "?"
	}
	return v
}
