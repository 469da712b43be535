// Package alleledb holds the known-allele table that allele candidates are
// annotated with, and derives locus reference data (flanks, reference allele)
// from a set of validated allele sequences.
package alleledb

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/forensic/dna"
	"github.com/grailbio/forensic/locus"
)

// Allele is one known allele of a locus.
type Allele struct {
	Locus string
	// Seq is the region of interest: the allele without primers and flanks.
	// It is empty for an allele of exactly the reference length.
	Seq string
	// Number is the STR allele number. It is empty for SNP loci.
	Number string
	// Nomenclature is "[a]", "[b]", ... for STR alleles sharing a number, and
	// the allele name for SNP loci.
	Nomenclature string
}

// Lookup finds the known alleles of a locus with the given region of
// interest. An implementation may return several matches; callers treat more
// than one as a data integrity error.
type Lookup interface {
	Find(locus, roi string) ([]Allele, error)
}

type key struct {
	locus, seq string
}

// Table is an in-memory Lookup. Every (locus, sequence) pair is unique. A
// Table must not be modified once shared between goroutines.
type Table struct {
	alleles map[key]Allele
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{alleles: map[key]Allele{}}
}

// Add inserts a. It returns an errors.Integrity error if the table already
// holds an allele with the same locus and sequence.
func (t *Table) Add(a Allele) error {
	k := key{a.Locus, a.Seq}
	if old, ok := t.alleles[k]; ok {
		return errors.E(errors.Integrity,
			fmt.Sprintf("locus %s: sequence %q already known as allele %s%s", a.Locus, a.Seq, old.Number, old.Nomenclature))
	}
	t.alleles[k] = a
	return nil
}

// Find implements Lookup. A nil table knows no alleles.
func (t *Table) Find(locus, roi string) ([]Allele, error) {
	if t == nil {
		return nil, nil
	}
	if a, ok := t.alleles[key{locus, roi}]; ok {
		return []Allele{a}, nil
	}
	return nil, nil
}

// Len returns the number of alleles in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.alleles)
}

// Alleles returns the alleles of a locus ordered by sequence length, then
// sequence.
func (t *Table) Alleles(locus string) []Allele {
	if t == nil {
		return nil
	}
	var r []Allele
	for k, a := range t.alleles {
		if k.locus == locus {
			r = append(r, a)
		}
	}
	sort.Slice(r, func(i, j int) bool {
		if len(r[i].Seq) != len(r[j].Seq) {
			return len(r[i].Seq) < len(r[j].Seq)
		}
		return r[i].Seq < r[j].Seq
	})
	return r
}

// Adjusted returns a copy of t whose sequences are re-keyed for descriptors
// changed by locus.Descriptor.Adjust: the bases removed from the flanks are
// added back around each sequence, so the table matches regions of interest
// computed with the adjusted descriptors. Loci absent from loci are copied
// unchanged.
func (t *Table) Adjusted(loci []*locus.Descriptor) (*Table, error) {
	byName := map[string]*locus.Descriptor{}
	for _, d := range loci {
		byName[d.Name] = d
	}
	r := NewTable()
	for _, a := range t.alleles {
		if d, ok := byName[a.Locus]; ok {
			a.Seq = d.RemovedForwardFlank + a.Seq + dna.ReverseComplement(d.RemovedReverseFlank)
		}
		if err := r.Add(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}
