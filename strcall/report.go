package strcall

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
)

func formatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}

// FormatRelated formats cluster relations as "diff:idx,idx;diff:idx" with
// ascending difference counts.
func FormatRelated(related map[int][]int) string {
	diffs := make([]int, 0, len(related))
	for d := range related {
		diffs = append(diffs, d)
	}
	sort.Ints(diffs)
	var b strings.Builder
	for i, d := range diffs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.Itoa(d))
		b.WriteByte(':')
		for j, idx := range related[d] {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(idx))
		}
	}
	return b.String()
}

// WriteAlleles writes one row per allele candidate, loci in the given order.
// Abundance, direction and flank qualities are percentages. Candidates not in
// the allele table have KnownNumber "NA".
func WriteAlleles(w io.Writer, loci []*LocusReport) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("Locus\tIndex\tROI\tCount\tAbundance\tSize\tKnownNumber\tKnownNomenclature\t" +
		"Direction\tClean\tCleanCompressed\tUnclean\tNone\tRelated")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, l := range loci {
		for _, c := range l.Candidates {
			tw.WriteString(l.Locus.Name)
			tw.WriteInt64(int64(c.Index))
			tw.WriteString(c.ROI)
			tw.WriteInt64(int64(c.Count))
			tw.WriteString(formatFloat(100*c.Abundance, 2))
			tw.WriteString(c.Size)
			switch {
			case !c.Known.Found:
				tw.WriteString("NA")
			case c.Known.Number == "":
				tw.WriteString(c.Known.Nomenclature)
			default:
				tw.WriteString(c.Known.Number)
			}
			tw.WriteString(c.Known.Nomenclature)
			tw.WriteString(formatFloat(100*c.Direction(), 2))
			tw.WriteString(formatFloat(c.Flanks[FlankClean], 1))
			tw.WriteString(formatFloat(c.Flanks[FlankCleanCompressed], 1))
			tw.WriteString(formatFloat(c.Flanks[FlankUnclean], 1))
			tw.WriteString(formatFloat(c.Flanks[FlankNone], 1))
			tw.WriteString(FormatRelated(c.Related))
			if err := tw.EndLine(); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return strings.Replace(err.Error(), "\t", " ", -1)
}

// WriteLoci writes one summary row per locus.
func WriteLoci(w io.Writer, loci []*LocusReport) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("Locus\tLocusType\tReads\tBadReads\tUniqueReads\tReadsFiltered\tCandidates\tClusterError\tError")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, l := range loci {
		tw.WriteString(l.Locus.Name)
		tw.WriteString(l.Locus.Type())
		tw.WriteInt64(int64(l.Reads))
		tw.WriteInt64(int64(l.BadReads))
		tw.WriteInt64(int64(l.UniqueReads))
		tw.WriteInt64(int64(l.ReadsFiltered))
		tw.WriteInt64(int64(len(l.Candidates)))
		tw.WriteString(errString(l.ClusterErr))
		tw.WriteString(errString(l.Err))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
