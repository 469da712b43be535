package locus

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

const snpType = "SNP"

// PrimerSet is one row of a loci configuration file. A locus may be listed
// with several primer sets.
type PrimerSet struct {
	Locus      string
	RepeatUnit int
	Forward    string
	// Reverse is ordered 5'->3' on the complementary strand.
	Reverse string
}

type configRow struct {
	Locus         string `tsv:"Locus"`
	LocusType     string `tsv:"LocusType"`
	ForwardPrimer string `tsv:"ForwardPrimer"`
	ReversePrimer string `tsv:"ReversePrimer"`
}

// ParseType parses a locus type column: a positive repeat unit for STR loci,
// or "SNP".
func ParseType(s string) (int, error) {
	if strings.EqualFold(s, snpType) {
		return 0, nil
	}
	unit, err := strconv.Atoi(s)
	if err != nil || unit < 0 {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("locus type %q: want a repeat unit or %s", s, snpType))
	}
	return unit, nil
}

// ReadPrimerSets parses a loci configuration TSV from r. The header row must
// name the columns Locus, LocusType, ForwardPrimer and ReversePrimer, in any
// order; lines starting with '#' are ignored. Primers are upper-cased.
func ReadPrimerSets(r io.Reader) ([]PrimerSet, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	tr.Comment = '#'
	var (
		sets []PrimerSet
		row  configRow
		line int
	)
	for {
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "read loci config", err)
		}
		line++
		unit, err := ParseType(row.LocusType)
		if err != nil {
			return nil, errors.E(fmt.Sprintf("loci config row %d (%s)", line, row.Locus), err)
		}
		if row.Locus == "" || row.ForwardPrimer == "" || row.ReversePrimer == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("loci config row %d: empty locus or primer", line))
		}
		sets = append(sets, PrimerSet{
			Locus:      row.Locus,
			RepeatUnit: unit,
			Forward:    strings.ToUpper(row.ForwardPrimer),
			Reverse:    strings.ToUpper(row.ReversePrimer),
		})
	}
	return sets, nil
}

// ReadPrimerSetsFile reads a loci configuration from path.
func ReadPrimerSetsFile(ctx context.Context, path string) ([]PrimerSet, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	sets, err := ReadPrimerSets(in.Reader(ctx))
	if cerr := in.Close(ctx); err == nil {
		err = cerr
	}
	if err == nil {
		log.Printf("read %d primer sets from %s", len(sets), path)
	}
	return sets, err
}

// GroupByLocus groups primer sets by locus name, keeping first-seen order. All
// sets of a locus must agree on the repeat unit.
func GroupByLocus(sets []PrimerSet) ([]string, map[string][]PrimerSet, error) {
	var names []string
	groups := map[string][]PrimerSet{}
	for _, s := range sets {
		g, ok := groups[s.Locus]
		if !ok {
			names = append(names, s.Locus)
		} else if g[0].RepeatUnit != s.RepeatUnit {
			return nil, nil, errors.E(errors.Invalid,
				fmt.Sprintf("locus %s: conflicting types %d and %d", s.Locus, g[0].RepeatUnit, s.RepeatUnit))
		}
		groups[s.Locus] = append(g, s)
	}
	return names, groups, nil
}

// WriteDescriptors writes one TSV row per descriptor, with a header row.
func WriteDescriptors(w io.Writer, loci []*Descriptor) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("Locus\tLocusType\tForwardPrimer\tReversePrimer\tForwardFlank\tReverseFlank\t" +
		"RemovedForwardFlank\tRemovedReverseFlank\tRefLength\tRefAlleleNumber\tRefSeq")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, d := range loci {
		tw.WriteString(d.Name)
		tw.WriteString(d.Type())
		tw.WriteString(d.ForwardPrimer)
		tw.WriteString(d.ReversePrimer)
		tw.WriteString(d.ForwardFlank)
		tw.WriteString(d.ReverseFlank)
		tw.WriteString(d.RemovedForwardFlank)
		tw.WriteString(d.RemovedReverseFlank)
		tw.WriteInt64(int64(d.RefLength))
		tw.WriteString(d.RefAlleleNumber)
		tw.WriteString(d.RefSeq)
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
