package strcall

import (
	"github.com/grailbio/forensic/encoding/fastq"
	"github.com/grailbio/forensic/locus"
)

// Reserved region-of-interest values.
const (
	// ReferenceLength marks a read whose flanks abut: its region of interest
	// is empty, as long as the reference region with all repeats removed.
	ReferenceLength = "[RL]"
	// NegativeLength marks a read whose trimmed ends overlap.
	NegativeLength = "[-]"
)

// IsMarker reports whether roi is one of the reserved values.
func IsMarker(roi string) bool {
	return roi == ReferenceLength || roi == NegativeLength
}

// State is the locus assignment state of a read.
type State uint8

const (
	// Unassigned reads match no locus, or failed trimming.
	Unassigned State = iota
	// Ambiguous reads match several loci, or one locus several times.
	Ambiguous
	// Assigned reads belong to Read.Locus.
	Assigned
)

func (s State) String() string {
	switch s {
	case Unassigned:
		return "unassigned"
	case Ambiguous:
		return "ambiguous"
	case Assigned:
		return "assigned"
	}
	return "invalid"
}

// FlankQuality tells how a flank boundary was found.
type FlankQuality uint8

const (
	// FlankNone is set when the locus has no flank on that side.
	FlankNone FlankQuality = iota
	// FlankClean is an exact flank match.
	FlankClean
	// FlankCleanCompressed is an exact match after homopolymer compression.
	FlankCleanCompressed
	// FlankUnclean is an approximate boundary from alignment or k-mer voting.
	FlankUnclean

	numFlankQualities
)

func (q FlankQuality) String() string {
	switch q {
	case FlankNone:
		return "none"
	case FlankClean:
		return "clean"
	case FlankCleanCompressed:
		return "clean_compressed"
	case FlankUnclean:
		return "unclean"
	}
	return "invalid"
}

// Read is one sequencing read on its way through assignment and trimming.
// Assign orients Seq and Qual; Trim extracts the region of interest.
type Read struct {
	Name string
	Seq  string
	Qual string
	// OriginalStrand is false once Assign reverse-complemented the read.
	OriginalStrand bool

	State State
	Locus *locus.Descriptor
	// KmerAssigned is set when the locus was found by k-mer scoring.
	KmerAssigned bool

	// PrimerOut is set once the primers have been removed.
	PrimerOut bool
	// Flanks holds the forward and reverse flank quality.
	Flanks [2]FlankQuality
	// Conflict explains a NegativeLength ROI or a demotion to Unassigned.
	Conflict error
	// ROI is the region of interest, or one of the reserved values. It is
	// empty until Trim succeeds.
	ROI string
	// ROIQual holds the qualities of ROI. It is empty for reserved values.
	ROIQual string
}

// NewRead returns a read for a FASTQ record.
func NewRead(r fastq.Read) *Read {
	name := r.ID
	if len(name) > 0 && (name[0] == '@' || name[0] == '>') {
		name = name[1:]
	}
	return &Read{Name: name, Seq: r.Seq, Qual: r.Qual, OriginalStrand: true}
}
