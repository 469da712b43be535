package strcall

import (
	"strings"

	"github.com/grailbio/forensic/dna"
	"github.com/grailbio/forensic/locus"
)

const (
	primerF = "GGCTGCAG"
	primerR = "GACAATGG"
	flankF  = "TTACCGAC"
	// flankROnF is the reverse flank as found on the forward strand.
	flankROnF = "GGTCATTC"
	refROI    = "AGATAGATAGAT"
)

func testLocus() *locus.Descriptor {
	return &locus.Descriptor{
		Name:            "D1",
		RepeatUnit:      4,
		ForwardPrimer:   primerF,
		ReversePrimer:   primerR,
		ForwardFlank:    flankF,
		ReverseFlank:    dna.ReverseComplement(flankROnF),
		RefLength:       len(refROI),
		RefAlleleNumber: "3",
	}
}

func otherLocus() *locus.Descriptor {
	return &locus.Descriptor{
		Name:            "D2",
		RepeatUnit:      4,
		ForwardPrimer:   "TCAGTACG",
		ReversePrimer:   "ATGCCTAG",
		RefAlleleNumber: "1",
	}
}

// amplicon returns a forward read of D1 with the given region of interest.
func amplicon(roi string) string {
	return "AC" + primerF + flankF + roi + flankROnF + dna.ReverseComplement(primerR) + "TT"
}

func qual(seq string) string { return strings.Repeat("I", len(seq)) }

func assignedRead(seq string) *Read {
	return &Read{Name: "r", Seq: seq, Qual: qual(seq), OriginalStrand: true, State: Assigned, Locus: testLocus()}
}
