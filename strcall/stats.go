package strcall

// Stats counts what happened to the reads of a run.
type Stats struct {
	// Reads is the number of reads processed.
	Reads int
	// Assigned reads have a region of interest, possibly NegativeLength.
	Assigned int
	// KmerAssigned counts the assigned reads found by k-mer scoring.
	KmerAssigned int
	Ambiguous    int
	Unassigned   int
	// TrimFailures counts reads demoted to Unassigned because trimming
	// failed. They are included in Unassigned.
	TrimFailures int
	// NegativeLength counts assigned reads whose trimmed ends overlap.
	NegativeLength int
}

func (s *Stats) add(r *Read) {
	s.Reads++
	switch r.State {
	case Assigned:
		s.Assigned++
		if r.KmerAssigned {
			s.KmerAssigned++
		}
		if r.ROI == NegativeLength {
			s.NegativeLength++
		}
	case Ambiguous:
		s.Ambiguous++
	default:
		s.Unassigned++
		if r.Conflict != nil {
			s.TrimFailures++
		}
	}
}

// Merge adds the field values of the two Stats objects and creates new Stats.
func (s Stats) Merge(o Stats) Stats {
	s.Reads += o.Reads
	s.Assigned += o.Assigned
	s.KmerAssigned += o.KmerAssigned
	s.Ambiguous += o.Ambiguous
	s.Unassigned += o.Unassigned
	s.TrimFailures += o.TrimFailures
	s.NegativeLength += o.NegativeLength
	return s
}
