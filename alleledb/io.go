package alleledb

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/forensic/locus"
)

type validatedRow struct {
	Locus      string `tsv:"Locus"`
	Validation string `tsv:"Validation"`
	Sequence   string `tsv:"Sequence"`
}

// ReadValidated parses a validated-allele TSV whose header names the columns
// Locus, Validation and Sequence. Lines starting with '#' are ignored and
// sequences are upper-cased.
func ReadValidated(r io.Reader) ([]Validated, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	tr.Comment = '#'
	var (
		alleles []Validated
		row     validatedRow
	)
	for {
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "read validated alleles", err)
		}
		if row.Locus == "" || row.Sequence == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("validated alleles row %d: empty locus or sequence", len(alleles)+1))
		}
		alleles = append(alleles, Validated{
			Locus:      row.Locus,
			Validation: row.Validation,
			Seq:        strings.ToUpper(row.Sequence),
		})
	}
	return alleles, nil
}

// ReadValidatedFile reads validated alleles from path.
func ReadValidatedFile(ctx context.Context, path string) ([]Validated, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	alleles, err := ReadValidated(in.Reader(ctx))
	if cerr := in.Close(ctx); err == nil {
		err = cerr
	}
	return alleles, err
}

// Build derives the descriptors of all loci named in sets and collects their
// known alleles into one table. When alleles is nil every locus gets a
// Synthetic allele from its first primer set. A locus whose derivation fails
// is left out and its error recorded in conflicts; the other loci are still
// built.
func Build(sets []locus.PrimerSet, alleles []Validated) (loci []*locus.Descriptor, table *Table, conflicts map[string]error, err error) {
	names, groups, err := locus.GroupByLocus(sets)
	if err != nil {
		return nil, nil, nil, err
	}
	byLocus := map[string][]Validated{}
	if alleles == nil {
		for _, name := range names {
			byLocus[name] = []Validated{Synthetic(groups[name][0])}
		}
	}
	for _, a := range alleles {
		if _, ok := groups[a.Locus]; !ok {
			log.Debug.Printf("allele for unconfigured locus %s ignored", a.Locus)
			continue
		}
		byLocus[a.Locus] = append(byLocus[a.Locus], a)
	}
	table = NewTable()
	conflicts = map[string]error{}
	for _, name := range names {
		d, known, err := Derive(groups[name], byLocus[name])
		if err != nil {
			log.Error.Printf("skipping locus %s: %v", name, err)
			conflicts[name] = err
			continue
		}
		for _, a := range known {
			if err := table.Add(a); err != nil {
				return nil, nil, nil, err
			}
		}
		loci = append(loci, d)
	}
	log.Printf("derived %d loci with %d known alleles, %d loci in conflict", len(loci), table.Len(), len(conflicts))
	return loci, table, conflicts, nil
}
