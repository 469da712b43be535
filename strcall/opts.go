package strcall

import "github.com/grailbio/forensic/locus"

// Opts configures an analysis run.
type Opts struct {
	// Threshold is the abundance a unique region of interest must exceed to be
	// kept as an allele candidate.
	Threshold float64
	// ThresholdLoop enables iterative filtering: the lowest counts are removed
	// first and the abundance denominator is recomputed over what remains.
	ThresholdLoop bool
	// UseCompress tries homopolymer-compressed flank matching, and runs the
	// approximate flank strategies on compressed sequences.
	UseCompress bool
	// WithAlignment locates unclean flanks by FlankIndex alignment before
	// falling back to the k-mer vote.
	WithAlignment bool
	// KmerAssign is the k-mer length for approximate locus assignment of reads
	// whose primers were not found. Zero disables it.
	KmerAssign int
	// KmerSource selects the locus k-mers used by KmerAssign.
	KmerSource KmerSource

	// PrimerBuffer, StutterBuffer and FlankOut adjust the locus descriptors
	// before the run. See locus.AdjustOpts.
	PrimerBuffer  int
	StutterBuffer int
	FlankOut      bool

	// NegativeReadsFilter drops reads whose region of interest has a negative
	// length before aggregation. It is always on when KmerAssign > 0.
	NegativeReadsFilter bool
	// ClusterInfo enables clustering of the allele candidates of each locus.
	ClusterInfo bool
	// MaxDifferences is the largest alignment difference count that links two
	// candidates.
	MaxDifferences int
	// MaxCluster caps the number of candidates a locus may have for
	// clustering.
	MaxCluster int

	// SubsampleRate keeps each input read with this probability, drawn from a
	// generator seeded with Seed. A rate of 1 keeps every read.
	SubsampleRate float64
	Seed          int64
	// Parallelism is the number of read-processing workers. Zero means one per
	// CPU.
	Parallelism int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Threshold:           0.005,       // -threshold
	ThresholdLoop:       true,        // -threshold-loop
	UseCompress:         true,        // -use-compress
	WithAlignment:       false,       // -with-alignment
	KmerAssign:          0,           // -kmer-assign
	KmerSource:          PrimerKmers, // -kmer-reference
	PrimerBuffer:        0,           // -primer-buffer
	StutterBuffer:       1,           // -stutter-buffer
	FlankOut:            true,        // -flank-out
	NegativeReadsFilter: true,        // -negative-reads-filter
	ClusterInfo:         true,        // -cluster-info
	MaxDifferences:      2,           // -max-differences
	MaxCluster:          50,          // -max-cluster
	SubsampleRate:       1,           // -subsample
	Seed:                0,           // -seed
	Parallelism:         0,           // -parallelism
}

// AdjustOpts returns the descriptor adjustments requested by o.
func (o Opts) AdjustOpts() locus.AdjustOpts {
	return locus.AdjustOpts{
		PrimerBuffer:  o.PrimerBuffer,
		StutterBuffer: o.StutterBuffer,
		FlankOut:      o.FlankOut,
	}
}

func (o Opts) filterNegative() bool {
	return o.NegativeReadsFilter || o.KmerAssign > 0
}
