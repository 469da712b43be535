// Package locus describes the forensic loci an analysis targets: their
// primers, the invariant flanks around the variable region, and the reference
// allele used to number STR alleles.
package locus

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/forensic/dna"
)

// Descriptor holds the reference data of one locus. A Descriptor is built once
// per run and is read-only afterwards; only its k-mer index is filled lazily.
//
// All sequences except ReversePrimer and ReverseFlank are on the forward
// strand. ReversePrimer and ReverseFlank are stored 5'->3' on the
// complementary strand, i.e. as the primer would be ordered.
type Descriptor struct {
	Name string
	// RepeatUnit is the STR repeat size in bases. Zero marks a SNP locus.
	RepeatUnit    int
	ForwardPrimer string
	ReversePrimer string
	ForwardFlank  string
	ReverseFlank  string
	// RefSeq is the full reference allele, primers included.
	RefSeq string
	// RefLength is the length of the reference region of interest.
	RefLength int
	// RefAlleleNumber is the reference allele name: "N" or "N.f" for STR loci,
	// free text for SNP loci.
	RefAlleleNumber string
	// RemovedForwardFlank and RemovedReverseFlank hold the inner flank bases
	// that Adjust moved out of the flanks. They are part of every region of
	// interest computed with the adjusted descriptor.
	RemovedForwardFlank string
	RemovedReverseFlank string

	kmers *kmerCache
}

// IsSTR reports whether d is a short tandem repeat locus.
func (d *Descriptor) IsSTR() bool { return d.RepeatUnit > 0 }

// Type returns the locus type as written in configuration files: the repeat
// unit for STR loci, "SNP" otherwise.
func (d *Descriptor) Type() string {
	if d.IsSTR() {
		return strconv.Itoa(d.RepeatUnit)
	}
	return snpType
}

// ReverseOnForward returns the reverse primer as it appears in a read from the
// forward strand.
func (d *Descriptor) ReverseOnForward() string { return dna.ReverseComplement(d.ReversePrimer) }

// AlleleNumber computes the STR allele number of a region of interest of
// roiLen bases. Bases moved out of the flanks by Adjust are discounted first.
// A region as long as the reference gets the reference number verbatim.
// Otherwise the difference D to the reference length is converted to whole
// repeat units plus a ".r" suffix for a remainder r = D mod unit; for a
// reference number "N.f" the reference length is first shortened by f.
//
// It returns "" for SNP loci.
func (d *Descriptor) AlleleNumber(roiLen int) (string, error) {
	if !d.IsSTR() {
		return "", nil
	}
	roiLen -= len(d.RemovedForwardFlank) + len(d.RemovedReverseFlank)
	if roiLen == d.RefLength {
		return d.RefAlleleNumber, nil
	}
	refLen := d.RefLength
	intPart, fracPart := d.RefAlleleNumber, ""
	if i := strings.IndexByte(d.RefAlleleNumber, '.'); i >= 0 {
		intPart, fracPart = d.RefAlleleNumber[:i], d.RefAlleleNumber[i+1:]
	}
	refNumber, err := strconv.Atoi(intPart)
	if err != nil {
		return "", errors.E(errors.Invalid, fmt.Sprintf("locus %s: reference allele number %q", d.Name, d.RefAlleleNumber), err)
	}
	if fracPart != "" {
		frac, err := strconv.Atoi(fracPart)
		if err != nil {
			return "", errors.E(errors.Invalid, fmt.Sprintf("locus %s: reference allele number %q", d.Name, d.RefAlleleNumber), err)
		}
		refLen -= frac
	}
	diff := roiLen - refLen
	rem := ((diff % d.RepeatUnit) + d.RepeatUnit) % d.RepeatUnit
	n := refNumber + diff/d.RepeatUnit
	if diff < 0 && rem != 0 {
		n--
	}
	if rem != 0 {
		return fmt.Sprintf("%d.%d", n, rem), nil
	}
	return strconv.Itoa(n), nil
}

// AdjustOpts configures Adjust.
type AdjustOpts struct {
	// PrimerBuffer trims this many bases from the outer (5') end of both
	// primers, so reads with damaged primer ends still match.
	PrimerBuffer int
	// StutterBuffer moves StutterBuffer*RepeatUnit inner bases of each STR
	// flank into the region of interest, so that stutters of the shortest
	// alleles do not end up with a negative length. Flanks not longer than that
	// are left untouched.
	StutterBuffer int
	// FlankOut disables flank removal when false: the whole flanks become part
	// of the region of interest.
	FlankOut bool
}

// Adjust returns a copy of d with the analysis-time adjustments applied. The
// copy has its own, empty k-mer index.
func (d *Descriptor) Adjust(opts AdjustOpts) *Descriptor {
	a := *d
	a.kmers = nil
	if opts.PrimerBuffer > 0 {
		a.ForwardPrimer = trimFront(a.ForwardPrimer, opts.PrimerBuffer)
		a.ReversePrimer = trimFront(a.ReversePrimer, opts.PrimerBuffer)
	}
	if !opts.FlankOut {
		a.RemovedForwardFlank = a.ForwardFlank + a.RemovedForwardFlank
		a.RemovedReverseFlank = a.ReverseFlank + a.RemovedReverseFlank
		a.ForwardFlank, a.ReverseFlank = "", ""
		return &a
	}
	if n := opts.StutterBuffer * a.RepeatUnit; n > 0 {
		a.ForwardFlank, a.RemovedForwardFlank = splitInner(a.ForwardFlank, a.RemovedForwardFlank, n)
		a.ReverseFlank, a.RemovedReverseFlank = splitInner(a.ReverseFlank, a.RemovedReverseFlank, n)
	}
	return &a
}

func trimFront(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	return s[n:]
}

func splitInner(flank, removed string, n int) (string, string) {
	if len(flank) <= n {
		return flank, removed
	}
	return flank[:len(flank)-n], flank[len(flank)-n:] + removed
}

// KmerIndex holds the k-mer sets used for approximate locus assignment.
type KmerIndex struct {
	// Forward and Reverse are found in reads from the forward strand.
	Forward, Reverse dna.KmerSet
	// ForwardComplement and ReverseComplement are found in reads from the
	// complementary strand.
	ForwardComplement, ReverseComplement dna.KmerSet
	// Reference and ReferenceComplement are the k-mers of RefSeq and of its
	// reverse complement.
	Reference, ReferenceComplement dna.KmerSet
}

type kmerCache struct {
	once sync.Once
	k    int
	idx  KmerIndex
}

// kmerMu guards the allocation of Descriptor.kmers.
var kmerMu sync.Mutex

// Kmers returns the k-mer index of the primers, building it on first use. All
// calls must use the same k. Kmers is safe for concurrent use.
func (d *Descriptor) Kmers(k int) *KmerIndex {
	kmerMu.Lock()
	if d.kmers == nil {
		d.kmers = &kmerCache{}
	}
	c := d.kmers
	kmerMu.Unlock()
	c.once.Do(func() {
		c.k = k
		c.idx = KmerIndex{
			Forward:             dna.NewKmerSet(d.ForwardPrimer, k),
			Reverse:             dna.NewKmerSet(d.ReverseOnForward(), k),
			ForwardComplement:   dna.NewKmerSet(dna.ReverseComplement(d.ForwardPrimer), k),
			ReverseComplement:   dna.NewKmerSet(d.ReversePrimer, k),
			Reference:           dna.NewKmerSet(d.RefSeq, k),
			ReferenceComplement: dna.NewKmerSet(dna.ReverseComplement(d.RefSeq), k),
		}
	})
	if c.k != k {
		panic(fmt.Sprintf("locus %s: k-mer index built with k=%d, requested k=%d", d.Name, c.k, k))
	}
	return &c.idx
}
